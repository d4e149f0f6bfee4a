package response

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	serv_http "code.cloudfoundry.org/webserv/common/http"
	"code.cloudfoundry.org/webserv/errorwriter"
	log "code.cloudfoundry.org/webserv/logger"
	"code.cloudfoundry.org/webserv/route"
)

// Script names a file that has to be executed instead of served.
type Script struct {
	Interpreter string
	Path        string
}

// Result is either a serialized response or a script to run.
type Result struct {
	Status int
	Raw    []byte
	Script *Script
}

type Builder struct {
	errorWriter errorwriter.ErrorWriter
	extensions  map[string]string
}

// NewBuilder serves files and listings. extensions maps script extensions
// (without the dot) to their interpreter.
func NewBuilder(ew errorwriter.ErrorWriter, extensions map[string]string) *Builder {
	return &Builder{errorWriter: ew, extensions: extensions}
}

func (b *Builder) Error(code int, pages map[int]string, logger *slog.Logger) Result {
	return Result{Status: code, Raw: b.errorWriter.WriteError(code, pages, logger)}
}

// Build produces the response for a routed request. Terminal decisions are
// rendered directly, everything else is resolved against the filesystem.
func (b *Builder) Build(d *route.Decision, requestPath string, logger *slog.Logger) Result {
	if d.IsRedirect() {
		return Result{Status: d.Status, Raw: serv_http.Redirect(d.Status, d.RedirectTo)}
	}
	if d.Terminal() {
		return b.Error(d.Status, d.ErrorPages(), logger)
	}

	loc := d.Location
	target := d.FilePath

	if d.Stripped == "/" && loc.Index != "" {
		index := filepath.Join(loc.Root, loc.Index)
		if info, err := os.Stat(index); err == nil && !info.IsDir() {
			logger.Debug("serving-index", slog.String("path", index))
			target = index
		}
	}

	info, err := os.Stat(target)
	if err != nil {
		logger.Debug("file-not-found", slog.String("path", target))
		return b.Error(http.StatusNotFound, d.ErrorPages(), logger)
	}

	if info.IsDir() {
		if !loc.AutoindexEnabled {
			return b.Error(http.StatusForbidden, d.ErrorPages(), logger)
		}
		body, err := renderListing(target, requestPath)
		if err != nil {
			logger.Info("autoindex-failed", slog.String("path", target), log.ErrAttr(err))
			return b.Error(http.StatusForbidden, d.ErrorPages(), logger)
		}
		return Result{Status: http.StatusOK, Raw: serv_http.Serialize(http.StatusOK, serv_http.HTMLContentType, body)}
	}

	ext := strings.TrimPrefix(filepath.Ext(target), ".")
	if interpreter, ok := b.extensions[ext]; ok {
		if err := unix.Access(target, unix.X_OK); err != nil {
			logger.Info("script-not-executable", slog.String("path", target), log.ErrAttr(err))
			return b.Error(http.StatusNotFound, d.ErrorPages(), logger)
		}
		abs, err := filepath.Abs(target)
		if err != nil {
			abs = target
		}
		return Result{Status: http.StatusOK, Script: &Script{Interpreter: interpreter, Path: abs}}
	}

	body, err := os.ReadFile(target)
	if err != nil {
		logger.Info("read-failed", slog.String("path", target), log.ErrAttr(err))
		return b.Error(http.StatusNotFound, d.ErrorPages(), logger)
	}
	return Result{Status: http.StatusOK, Raw: serv_http.Serialize(http.StatusOK, serv_http.ContentType(target), body)}
}
