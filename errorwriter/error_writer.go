package errorwriter

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	serv_http "code.cloudfoundry.org/webserv/common/http"
	log "code.cloudfoundry.org/webserv/logger"
)

// ErrorWriter renders a complete serialized error response for code.
// pages holds the per-status overrides of the location (or virtual host when
// no location was selected); it may be nil.
type ErrorWriter interface {
	WriteError(code int, pages map[int]string, logger *slog.Logger) []byte
}

const inlineTemplate = `<html><head><title>{{.Status}} {{.StatusText}}</title></head>
<body><center><h1>{{.Status}} {{.StatusText}}</h1></center><hr></body>
</html>
`

type pageErrorWriter struct {
	dir string
	tpl *template.Template
}

type pageErrorWriterContext struct {
	Status     int
	StatusText string
}

// NewPageErrorWriter resolves error pages in this order: the override page,
// <dir>/<code>.html, <dir>/unknown.html and finally an inline page.
func NewPageErrorWriter(dir string) ErrorWriter {
	return &pageErrorWriter{
		dir: dir,
		tpl: template.Must(template.New("error-page").Parse(inlineTemplate)),
	}
}

// NewPageErrorWriterFromFile is NewPageErrorWriter with the inline page read
// from a template file.
func NewPageErrorWriterFromFile(dir, path string) (ErrorWriter, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Could not read HTML error template file: %s", err)
	}

	tpl, err := template.New("error-page").Parse(string(b))
	if err != nil {
		return nil, err
	}

	return &pageErrorWriter{dir: dir, tpl: tpl}, nil
}

func (ew *pageErrorWriter) WriteError(code int, pages map[int]string, logger *slog.Logger) []byte {
	if code != http.StatusNotFound {
		logger.Info("status", slog.Int("code", code))
	}

	candidates := make([]string, 0, 3)
	if page, ok := pages[code]; ok {
		candidates = append(candidates, page)
	}
	if ew.dir != "" {
		candidates = append(candidates,
			filepath.Join(ew.dir, strconv.Itoa(code)+".html"),
			filepath.Join(ew.dir, "unknown.html"),
		)
	}

	for _, candidate := range candidates {
		if body, ok := readPage(candidate); ok {
			return serv_http.Serialize(code, serv_http.HTMLContentType, body)
		}
		logger.Debug("error-page-unusable", slog.String("page", candidate))
	}

	var rendered bytes.Buffer
	tplContext := pageErrorWriterContext{
		Status:     code,
		StatusText: serv_http.ReasonPhrase(code),
	}
	if err := ew.tpl.Execute(&rendered, &tplContext); err != nil {
		logger.Error("render-error-failed", log.ErrAttr(err))
		body := fmt.Sprintf("%d %s", code, serv_http.ReasonPhrase(code))
		return serv_http.Serialize(code, serv_http.DefaultContentType, []byte(body))
	}

	return serv_http.Serialize(code, serv_http.HTMLContentType, rendered.Bytes())
}

// readPage returns the page contents only if it is a readable regular file.
func readPage(path string) ([]byte, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, false
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return b, true
}
