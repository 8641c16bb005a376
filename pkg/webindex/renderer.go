package webindex

import (
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/CyrilBrulebois/apt-webindex/pkg/apt"
	"github.com/go-logr/logr"
	"github.com/spf13/afero"
)

// DefaultTitle is what the page is called when nothing better is
// provided.
const DefaultTitle = "aptly-webindex"

//go:embed template.html
var pageTemplate string

const styleSheet = `h1 {
  text-align: center;
  color: #a80030;
  text-decoration: underline;
}
h4 {
  text-align: center;
  font-weight: normal;
}
table {
  width: 100%;
  border: 1px solid #333;
  border-collapse: collapse;
}
th {
  background-color: #a80030;
  color: #FFF;
}
th.distribution {
  background-color: #880020;
}
td {
  vertical-align: top;
  border: 1px solid black;
  padding: 2px 5px;
  white-space: nowrap;
}
td.centered {
  text-align: center;
}
td.versions {
  white-space: normal;
}
.mono {
  font-family: monospace;
}

/* Multi-dist support: try to align columns across tables */
.col1 { width: 15%; }
.col2 { width: 10%; }
.col3 { width:  5%; }
.col4 { width: 70%; }

/* Newness indicators, the higher the hotter */
.hot1 { background-color: #555753; }
.hot2 { background-color: #d3d7cf; }
.hot3 { background-color: #edd400; }
.hot4 { background-color: #f57900; }
.hot5 { background-color: #cc0000; }`

type page struct {
	Title  string
	CSS    template.CSS
	Scale  []string
	Suites []suiteView
}

type suiteView struct {
	Name string
	Rows []rowView
}

type rowView struct {
	Package  string
	PoolDir  string
	Newest   string
	HasAge   bool
	HotClass string
	Tooltip  string
	Debs     []debLink
	Older    []string
}

type debLink struct {
	Arch string
	Href string
}

// Renderer turns a finished catalog into the HTML overview page.
// Artifact timestamps for the freshness indicators are read through
// the same filesystem the repository was scanned from.
type Renderer struct {
	fs    afero.Fs
	root  string
	title string
	now   func() time.Time
	tmpl  *template.Template
}

func NewRenderer(fs afero.Fs, root, title string) (*Renderer, error) {
	if title == "" {
		title = DefaultTitle
	}
	tmpl, err := template.New("webindex").Funcs(template.FuncMap{
		"join": strings.Join,
	}).Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}
	return &Renderer{
		fs:    fs,
		root:  root,
		title: title,
		now:   time.Now,
		tmpl:  tmpl,
	}, nil
}

// Render writes the overview page for the given catalog. An empty
// catalog renders a valid page with no suite tables.
func (r *Renderer) Render(ctx context.Context, w io.Writer, cat *apt.Catalog) error {
	log := logr.FromContextOrDiscard(ctx)

	data := page{
		Title: r.title,
		CSS:   template.CSS(styleSheet),
		Scale: []string{"hot1", "hot2", "hot3", "hot4", "hot5"},
	}
	now := r.now()
	for _, suite := range cat.Suites() {
		se := cat.Suite(suite)
		view := suiteView{Name: suite}
		for _, name := range se.Packages() {
			view.Rows = append(view.Rows, r.row(log, se.Package(name), now))
		}
		data.Suites = append(data.Suites, view)
	}
	if err := r.tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	return nil
}

func (r *Renderer) row(log logr.Logger, pe *apt.PackageEntry, now time.Time) rowView {
	row := rowView{
		Package: pe.Name(),
		PoolDir: pe.PoolDir(),
		Newest:  pe.LatestOverall().Version,
		Older:   pe.OlderVersions(),
	}
	newest := pe.NewestRecords()
	for _, vr := range newest {
		row.Debs = append(row.Debs, debLink{
			Arch: vr.Architecture,
			Href: vr.Record.Filename,
		})
	}
	// the timestamp of the first matching artifact stands in for the
	// whole row, which can be surprising if one build lags behind
	if len(newest) > 0 && newest[0].Record.Filename != "" {
		fi, err := r.fs.Stat(filepath.Join(r.root, newest[0].Record.Filename))
		if err != nil {
			log.V(1).Info("cannot stat newest artifact", "package", pe.Name(), "filename", newest[0].Record.Filename, "error", err)
			return row
		}
		desc, class := ageInfo(now.Sub(fi.ModTime()))
		row.HasAge = true
		row.HotClass = class
		row.Tooltip = desc + "\n" + fi.ModTime().UTC().Format(timeFormat)
	}
	return row
}
