package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// ErrParameterNotFound is returned by a Provider when a parameter has no
// value. Resolve treats it as "use the default".
var ErrParameterNotFound = fmt.Errorf("parameter not found")

// Provider resolves named configuration parameters. Implementations cache
// results after the first successful lookup, so repeated reads of the same
// path are cheap.
type Provider interface {
	GetParameter(path string) (string, error)
}

// EnvProvider resolves parameter paths against process environment
// variables: "/pet-gallery/s3/bucket-name" maps to
// "PET_GALLERY_S3_BUCKET_NAME".
type EnvProvider struct {
	mu    sync.Mutex
	cache map[string]string
}

func NewEnvProvider() *EnvProvider {
	return &EnvProvider{cache: make(map[string]string)}
}

func (p *EnvProvider) GetParameter(path string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if value, ok := p.cache[path]; ok {
		return value, nil
	}

	value, exists := os.LookupEnv(envName(path))
	if !exists {
		return "", fmt.Errorf("%w: %s", ErrParameterNotFound, path)
	}

	p.cache[path] = value
	return value, nil
}

func envName(path string) string {
	name := strings.Trim(path, "/")
	name = strings.NewReplacer("/", "_", "-", "_", ".", "_").Replace(name)
	return strings.ToUpper(name)
}
