package store

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/rs/xid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"ledsign/pkg/bitmap"
)

// New returns a store writing PNG files into dir, creating it if needed.
func New(fs afero.Fs, dir string, logger *zap.Logger) (*Store, error) {
	if exists, err := afero.DirExists(fs, dir); err != nil {
		return nil, err
	} else if !exists {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create image dir failed: %w", err)
		}
	}

	return &Store{fs: fs, dir: dir, logger: logger}, nil
}

// Store keeps rendered pictures on disk for the time a controller needs them.
type Store struct {
	fs     afero.Fs
	dir    string
	logger *zap.Logger
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) NewFile() string {
	return filepath.Join(s.dir, xid.New().String()+".png")
}

func (s *Store) Save(bmp *bitmap.Bitmap) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, bmp, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode png failed: %w", err)
	}

	file := s.NewFile()
	if err := afero.WriteFile(s.fs, file, buf.Bytes(), 0644); err != nil {
		return "", err
	}

	s.logger.With(zap.String("path", file), zap.Int("bytes", buf.Len())).Debug("image saved")
	return file, nil
}

func (s *Store) Remove(path string) error {
	if err := s.fs.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	s.logger.With(zap.String("path", path)).Info("image deleted")
	return nil
}

func (s *Store) Exists(path string) (bool, error) {
	return afero.Exists(s.fs, path)
}
