package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Files written per case by the directory sink
const (
	DetailsFile   = "details.json"
	DocumentsFile = "documents.json"
)

// Directory runs the helper commands locally: one folder per case holding
// the details, the page text and the document manifest. Documents are
// listed, not downloaded.
type Directory struct {
	root string
}

// NewDirectory writes case folders under root
func NewDirectory(root string) *Directory {
	return &Directory{root: root}
}

// Send implements Sink
func (d *Directory) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := d.CaseDir(msg)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create case folder: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, DetailsFile), msg.Details); err != nil {
		return fmt.Errorf("save details: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, FullTextFile), []byte(msg.Details.FullPageText)); err != nil {
		return fmt.Errorf("save text: %w", err)
	}

	var manifest []Command
	for _, cmd := range Commands(msg) {
		if cmd.Action == CommandDownloadFile {
			manifest = append(manifest, cmd)
		}
	}
	if manifest == nil {
		manifest = []Command{}
	}
	if err := writeJSON(filepath.Join(dir, DocumentsFile), manifest); err != nil {
		return fmt.Errorf("save document manifest: %w", err)
	}
	return nil
}

// Close implements Sink
func (d *Directory) Close() error { return nil }

// CaseDir is the folder a message is written to. Records without a case
// number go under "unknown-" plus the message ID.
func (d *Directory) CaseDir(msg Message) string {
	name := folderName(msg.CaseNumber)
	if name == "" {
		id := msg.ID
		if len(id) > 8 {
			id = id[:8]
		}
		name = "unknown-" + id
	}
	return filepath.Join(d.root, name)
}

// folderName keeps letters, digits and hyphens
func folderName(caseNumber string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return -1
		}
	}, caseNumber)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}
