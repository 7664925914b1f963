package restyutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// FilesystemOutput writes every http exchange of a client into its own file
// in a directory, named by the order it was received in.
type FilesystemOutput struct {
	directory string
	counter   *uint64
}

// NewFilesystemOutput clears out and recreates dir.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.RemoveAll(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemOutput{}, err
	}
	var counter uint64
	return FilesystemOutput{directory: dir, counter: &counter}, nil
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write exchange file", "id", id, "err", err)
	}
}

// Attach registers a response hook on client that dumps each exchange.
func (o FilesystemOutput) Attach(client *resty.Client) {
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := atomic.AddUint64(o.counter, 1)
		o.Write(fmt.Sprintf("%04d.txt", id), FormatExchange(res))
		return nil
	})
}
