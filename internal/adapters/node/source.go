package node

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gridsync-logstream/internal/usecase"
)

// NodeURLFile is the file a Tahoe-LAFS node writes its web address to.
const NodeURLFile = "node.url"

// Gateway holds a node's base address; it can be replaced at any time and
// the next connection attempt picks up the new value.
type Gateway struct {
	mu      sync.RWMutex
	nodeURL string
}

func NewGateway(nodeURL string) *Gateway {
	return &Gateway{nodeURL: strings.TrimSpace(nodeURL)}
}

func (g *Gateway) NodeURL() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodeURL
}

func (g *Gateway) SetNodeURL(u string) {
	g.mu.Lock()
	g.nodeURL = strings.TrimSpace(u)
	g.mu.Unlock()
}

// FileSource reads <dir>/node.url on every call. A missing or unreadable file
// yields "", which the resolver rejects, so the controller keeps retrying
// until the node has started and written it.
type FileSource struct {
	path string
}

func NewFileSource(nodeDir string) *FileSource {
	return &FileSource{path: filepath.Join(nodeDir, NodeURLFile)}
}

func (f *FileSource) Path() string { return f.path }

func (f *FileSource) NodeURL() string {
	b, err := os.ReadFile(f.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

var (
	_ usecase.NodeURLSource = (*Gateway)(nil)
	_ usecase.NodeURLSource = (*FileSource)(nil)
)
