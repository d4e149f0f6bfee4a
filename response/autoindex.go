package response

import (
	"bytes"
	"html/template"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const modTimeLayout = "02-Jan-2006 15:04"

var listingTemplate = template.Must(template.New("autoindex").Parse(
	`<html><body><h1>Index of {{.Path}}</h1>
<hr><pre><table>
{{range .Entries}}<tr><td style="width:70%"><a href="{{.Href}}">{{.Name}}</a></td><td style="width:20%">{{.ModTime}}</td><td align="right">{{.Size}}</td></tr>
{{end}}</table>
</pre><hr></body>
</html>
`))

type listingEntry struct {
	Name    string
	Href    string
	ModTime string
	Size    string
}

type listing struct {
	Path    string
	Entries []listingEntry
}

// renderListing lists dir as seen under requestPath. The parent entry comes
// first, "." is never listed.
func renderListing(dir, requestPath string) ([]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	base := requestPath
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	l := listing{Path: requestPath}
	l.Entries = append(l.Entries, listingEntry{Name: "../", Href: base + "../"})

	for _, entry := range entries {
		name := entry.Name()
		e := listingEntry{Name: name, ModTime: "Unknown", Size: "Unknown"}

		info, err := os.Stat(filepath.Join(dir, name))
		if err == nil {
			e.ModTime = info.ModTime().Local().Format(modTimeLayout)
			e.Size = strconv.FormatInt(info.Size(), 10)
			if info.IsDir() {
				e.Name += "/"
				e.Size = "-"
			}
		} else if entry.IsDir() {
			e.Name += "/"
		}
		e.Href = base + e.Name
		l.Entries = append(l.Entries, e)
	}

	var out bytes.Buffer
	if err := listingTemplate.Execute(&out, &l); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
