// Command lsp is the Ember language server: a deliberately thin layer
// that recompiles a
// document on every change and answers hover requests off the
// pipeline's output; it publishes no diagnostics. Hover reuses the
// compiled functions' mark tables,
// the same position data the panic traces and the debugger read.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/emberlang/ember/internal/pipeline"
)

type server struct {
	mu   sync.RWMutex
	docs map[string]*document
	out  io.Writer
}

type document struct {
	text string
	res  *pipeline.Result
}

type rpcRequest struct {
	Id     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

func main() {
	s := &server{docs: map[string]*document{}, out: os.Stdout}
	reader := bufio.NewReader(os.Stdin)
	for {
		payload, err := readMessage(reader)
		if err != nil {
			if err != io.EOF {
				log.Printf("lsp: read: %v", err)
			}
			return
		}
		var req rpcRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			log.Printf("lsp: bad message: %v", err)
			continue
		}
		if req.Method == "exit" {
			return
		}
		s.handle(req)
	}
}

func readMessage(r *bufio.Reader) ([]byte, error) {
	length := 0
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if length > 0 {
				break
			}
			continue
		}
		if v, ok := strings.CutPrefix(line, "Content-Length: "); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, err
			}
			length = n
		}
	}
	buf := make([]byte, length)
	_, err := io.ReadFull(r, buf)
	return buf, err
}

func (s *server) reply(id json.RawMessage, result interface{}) {
	if id == nil {
		return
	}
	body, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"result":  result,
	})
	fmt.Fprintf(s.out, "Content-Length: %d\r\n\r\n%s", len(body), body)
}

func (s *server) handle(req rpcRequest) {
	switch req.Method {
	case "initialize":
		s.reply(req.Id, map[string]interface{}{
			"capabilities": map[string]interface{}{
				"textDocumentSync": 1, // full
				"hoverProvider":    true,
			},
		})
	case "shutdown":
		s.reply(req.Id, nil)
	case "textDocument/didOpen":
		var p struct {
			TextDocument struct {
				Uri  string `json:"uri"`
				Text string `json:"text"`
			} `json:"textDocument"`
		}
		if json.Unmarshal(req.Params, &p) == nil {
			s.update(p.TextDocument.Uri, p.TextDocument.Text)
		}
	case "textDocument/didChange":
		var p struct {
			TextDocument struct {
				Uri string `json:"uri"`
			} `json:"textDocument"`
			ContentChanges []struct {
				Text string `json:"text"`
			} `json:"contentChanges"`
		}
		if json.Unmarshal(req.Params, &p) == nil && len(p.ContentChanges) > 0 {
			s.update(p.TextDocument.Uri, p.ContentChanges[len(p.ContentChanges)-1].Text)
		}
	case "textDocument/didClose":
		var p struct {
			TextDocument struct {
				Uri string `json:"uri"`
			} `json:"textDocument"`
		}
		if json.Unmarshal(req.Params, &p) == nil {
			s.mu.Lock()
			delete(s.docs, p.TextDocument.Uri)
			s.mu.Unlock()
		}
	case "textDocument/hover":
		s.hover(req)
	default:
		s.reply(req.Id, nil)
	}
}

func (s *server) update(uri, text string) {
	res, err := pipeline.Compile(context.Background(), []pipeline.SourceFile{
		{Path: uri, Module: nil, Text: text},
	})
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := &document{text: text}
	if err == nil {
		doc.res = res
	}
	s.docs[uri] = doc
}

// hover reports a compiled function that starts at or before the
// requested line and has a mark recorded on exactly that line. A line
// with no mark gets no hover.
func (s *server) hover(req rpcRequest) {
	var p struct {
		TextDocument struct {
			Uri string `json:"uri"`
		} `json:"textDocument"`
		Position struct {
			Line int `json:"line"`
		} `json:"position"`
	}
	if json.Unmarshal(req.Params, &p) != nil {
		s.reply(req.Id, nil)
		return
	}
	s.mu.RLock()
	doc := s.docs[p.TextDocument.Uri]
	s.mu.RUnlock()
	if doc == nil || doc.res == nil || doc.res.Module == nil {
		s.reply(req.Id, nil)
		return
	}

	line := uint16(p.Position.Line + 1) // LSP lines are zero-based
	var name string
	for _, fn := range doc.res.Module.Funcs {
		if fn.Line > line {
			continue
		}
		for _, mark := range fn.Marks {
			if mark.Line == line {
				name = fn.Name
				break
			}
		}
	}
	if name == "" {
		s.reply(req.Id, nil)
		return
	}
	s.reply(req.Id, map[string]interface{}{
		"contents": map[string]interface{}{
			"kind":  "plaintext",
			"value": "fn " + name,
		},
	})
}
