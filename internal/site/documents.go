package site

import (
	htmltemplate "html/template"
	"text/template"
)

const (
	IndexFile   = "index.html"
	ReadmeFile  = "README.md"
	LicenseFile = "LICENSE"
)

var indexTmpl = htmltemplate.Must(htmltemplate.New(IndexFile).Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Task Round {{.Round}}</title>
</head>
<body>
    <h1>{{.Brief}}</h1>
    <p>Attachments saved: {{.Attachments}}</p>
</body>
</html>
`))

var readmeTmpl = template.Must(template.New(ReadmeFile).Parse(`# {{.Task}} - Round {{.Round}}

This project implements the app generated for task ` + "`{{.Task}}`" + ` in round {{.Round}}.

## Setup
- No build step: the site is plain static HTML, CSS and assets.
- Serve this directory with any static file server, or open ` + "`index.html`" + ` directly in a browser.

## Usage
Open ` + "`index.html`" + ` or visit the Pages URL: {{.PagesURL}}

## License
MIT License
`))

var licenseTmpl = template.Must(template.New(LicenseFile).Parse(`MIT License

Copyright (c) {{.Year}} {{.Owner}}

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
`))

type indexData struct {
	Round       int
	Brief       string
	Attachments string
}

type readmeData struct {
	Task     string
	Round    int
	PagesURL string
}

type licenseData struct {
	Year  int
	Owner string
}
