package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
)

// FileName is the report artifact written into the input directory.
const FileName = "report.html"

const pageTmpl = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Block Analysis Report</title>
<style>
{{.CSS}}
</style>
</head>
<body>
<h1>Worker Messages</h1>
{{.Table}}
</body>
</html>
`

// pageCSS styles the timeline table. The three cell classes mirror the
// classifier's type mapping.
const pageCSS = template.CSS(`body {
  font-family: sans-serif;
  background: #fdfdfd;
  color: #1c1c1c;
}
table.worker {
  border-collapse: collapse;
  width: 100%;
}
table.worker th, table.worker td {
  border: 1px solid #b0b0b0;
  padding: 4px 6px;
  vertical-align: top;
}
tr.header_row th {
  background: #2d2d44;
  color: #fdfdfd;
  position: sticky;
  top: 0;
}
td.precondition { background: #e2f0e2; }
td.postcondition { background: #f4dede; }
td.normal { background: #eef; }
td div p { margin: 2px 0; }
td textarea {
  width: 100%;
  min-height: 60px;
  resize: vertical;
  font-family: monospace;
}`)

var pageTemplate = template.Must(template.New("page").Parse(pageTmpl))

// Path returns the report file location for an input directory.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Write assembles the page around the rendered table and writes it to
// dir. The stylesheet is injected into the static template the same
// way the table is.
func Write(dir string, table template.HTML) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Table template.HTML
		CSS   template.CSS
	}{Table: table, CSS: pageCSS}
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	path := Path(dir)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
