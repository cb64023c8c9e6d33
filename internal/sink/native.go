package sink

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// MaxNativeMessage caps one framed message; larger frames are refused
const MaxNativeMessage = 64 << 20

// Helper commands, one per file operation
const (
	CommandCreateFolder = "createCaseFolder"
	CommandSaveDetails  = "saveDetails"
	CommandSaveText     = "saveText"
	CommandDownloadFile = "downloadFile"
)

// FullTextFile is the name the page text is saved under
const FullTextFile = "full_page_text.txt"

// Command is one instruction for the local helper
type Command struct {
	Action     string `json:"action"`
	CaseNumber string `json:"caseNumber"`
	Details    any    `json:"details,omitempty"`
	Filename   string `json:"filename,omitempty"`
	Content    string `json:"content,omitempty"`
	URL        string `json:"url,omitempty"`
	Index      int    `json:"index,omitempty"`
}

// Commands expands a case message into the helper's file operations:
// create the folder, save the details and the page text, then fetch each
// document oldest first
func Commands(msg Message) []Command {
	cmds := []Command{
		{Action: CommandCreateFolder, CaseNumber: msg.CaseNumber},
		{Action: CommandSaveDetails, CaseNumber: msg.CaseNumber, Details: msg.Details},
		{Action: CommandSaveText, CaseNumber: msg.CaseNumber, Filename: FullTextFile, Content: msg.Details.FullPageText},
	}
	for i, doc := range msg.Documents {
		name := doc.Name
		if name == "" {
			name = fmt.Sprintf("document_%d.pdf", i+1)
		}
		cmds = append(cmds, Command{
			Action:     CommandDownloadFile,
			CaseNumber: msg.CaseNumber,
			URL:        doc.URL,
			Filename:   name,
			Index:      i + 1,
		})
	}
	return cmds
}

// Native speaks the browser native-messaging framing to the local helper:
// a 4-byte little-endian length followed by that many bytes of JSON
type Native struct {
	mu sync.Mutex
	w  io.Writer
}

// NewNative writes frames to w, usually the helper's stdin
func NewNative(w io.Writer) *Native {
	return &Native{w: w}
}

// Send writes the helper commands for msg
func (n *Native) Send(ctx context.Context, msg Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, cmd := range Commands(msg) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := WriteFrame(n.w, cmd); err != nil {
			return fmt.Errorf("native %s: %w", cmd.Action, err)
		}
	}
	return nil
}

// Close implements Sink; the writer belongs to the caller
func (n *Native) Close() error { return nil }

// WriteFrame encodes v as one native-messaging frame
func WriteFrame(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	if len(payload) > MaxNativeMessage {
		return fmt.Errorf("frame of %d bytes exceeds %d", len(payload), MaxNativeMessage)
	}

	frame := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(frame, uint32(len(payload)))
	copy(frame[4:], payload)
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// ReadFrame decodes one frame into v. It returns io.EOF at a clean end of
// stream.
func ReadFrame(r io.Reader, v any) error {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return fmt.Errorf("read frame header: %w", err)
		}
		return err
	}

	size := binary.LittleEndian.Uint32(header[:])
	if size > MaxNativeMessage {
		return fmt.Errorf("frame of %d bytes exceeds %d", size, MaxNativeMessage)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return fmt.Errorf("read frame body: %w", err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	return nil
}
