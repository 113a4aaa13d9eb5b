package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	promptDisallowed = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	promptSeparators = regexp.MustCompile(`[\s-]+`)
)

const (
	promptMaxRunes = 50
	maxNameSuffix  = 1000
)

// SanitizePrompt turns a prompt into a filename stem.
func SanitizePrompt(prompt string) string {
	s := promptDisallowed.ReplaceAllString(prompt, "")
	s = promptSeparators.ReplaceAllString(s, "_")
	if r := []rune(s); len(r) > promptMaxRunes {
		s = string(r[:promptMaxRunes])
	}
	return s
}

// ModelDir maps a model display name to its directory name.
func ModelDir(modelName string) string {
	return strings.ReplaceAll(modelName, " ", "_")
}

// StoredFile is an image found under the output directory.
type StoredFile struct {
	Path      string
	ModelName string
	Prompt    string
	ModTime   time.Time
}

type ImageStore interface {
	Save(ctx context.Context, modelName, prompt string, p Payload, at time.Time) (string, error)
	Scan(ctx context.Context) ([]StoredFile, error)
	Remove(path string) error
}

type localImageStore struct {
	rootDir string
}

// NewLocalImageStore writes <root>/<Model_Dir>/<prompt_stem>_<unix>.png, or
// <prompt_stem>_<unix>_<n>.png when that name is already taken.
func NewLocalImageStore(rootDir string) ImageStore {
	return &localImageStore{rootDir: rootDir}
}

func (s *localImageStore) Save(ctx context.Context, modelName, prompt string, p Payload, at time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data := p.Data
	if p.Format != "png" {
		if p.Image == nil {
			return "", errors.New("image store: payload is not png and has no decoded image")
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, p.Image); err != nil {
			return "", err
		}
		data = buf.Bytes()
	}

	dir := filepath.Join(s.rootDir, ModelDir(modelName))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	stem := SanitizePrompt(prompt) + "_" + strconv.FormatInt(at.Unix(), 10)
	for n := 0; n < maxNameSuffix; n++ {
		name := stem + ".png"
		if n > 0 {
			name = stem + "_" + strconv.Itoa(n) + ".png"
		}
		dst := filepath.Join(dir, name)
		f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		_, err = f.Write(data)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(dst)
			return "", err
		}
		return dst, nil
	}
	return "", fmt.Errorf("image store: no free file name for %s in %s", stem, dir)
}

func (s *localImageStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *localImageStore) Scan(ctx context.Context) ([]StoredFile, error) {
	var out []StoredFile
	err := filepath.WalkDir(s.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == s.rootDir {
				return fs.SkipAll
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".png", ".jpg", ".jpeg":
		default:
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		out = append(out, StoredFile{
			Path:      path,
			ModelName: strings.ReplaceAll(filepath.Base(filepath.Dir(path)), "_", " "),
			Prompt:    promptFromFilename(d.Name()),
			ModTime:   info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// promptFromFilename drops the extension, the collision suffix if any and the
// trailing timestamp segment.
func promptFromFilename(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(stem, "_")
	if len(parts) > 2 && isCollisionSuffix(parts[len(parts)-1], parts[len(parts)-2]) {
		parts = parts[:len(parts)-1]
	}
	if len(parts) < 2 {
		return "Unknown prompt"
	}
	return strings.Join(parts[:len(parts)-1], " ")
}

func isCollisionSuffix(last, prev string) bool {
	return len(last) < len(strconv.Itoa(maxNameSuffix)) && isDigits(last) && len(prev) >= 9 && isDigits(prev)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
