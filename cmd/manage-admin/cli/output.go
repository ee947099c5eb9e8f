package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/manage-pm/manage-admin/internal/platform/httpx"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func printAck(w io.Writer, ack httpx.Ack) {
	switch {
	case ack.ID != 0:
		_, _ = fmt.Fprintf(w, "ok: %s (id %d)\n", ack.Message, ack.ID)
	default:
		_, _ = fmt.Fprintf(w, "ok: %s\n", ack.Message)
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func parseIDs(raw []string) ([]int64, error) {
	var ids []int64
	for _, chunk := range raw {
		for _, part := range strings.Split(chunk, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			id, err := parseID(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no ids given")
	}
	return ids, nil
}

// saveBlob writes blob to out, or to its server supplied name in the working
// directory when out is empty.
func saveBlob(w io.Writer, blob *httpx.Blob, out, fallback string) error {
	path := out
	if path == "" {
		path = filepath.Base(blob.Filename)
		if blob.Filename == "" || path == "." || path == string(filepath.Separator) {
			path = fallback
		}
	}
	if err := os.WriteFile(path, blob.Data, 0o644); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "wrote %s (%d bytes)\n", path, len(blob.Data))
	return nil
}
