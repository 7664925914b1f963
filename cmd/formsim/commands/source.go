package commands

import (
	"context"
	"fmt"
	"os"

	"formsim-backend/internal/extractor"
	"formsim-backend/internal/fetcher"
	"formsim-backend/internal/form"
)

// readSource returns the html of a local file, or fetches it when source is
// not a file on disk.
func readSource(ctx context.Context, source string) (string, error) {
	info, err := os.Stat(source)
	if err == nil && !info.IsDir() {
		contents, err := os.ReadFile(source)
		if err != nil {
			return "", err
		}
		return string(contents), nil
	}

	f, err := fetcher.New(fetcher.Options{}, tel)
	if err != nil {
		return "", err
	}
	return f.Fetch(ctx, source)
}

func loadForm(ctx context.Context, source string) (form.ParsedForm, error) {
	html, err := readSource(ctx, source)
	if err != nil {
		return form.ParsedForm{}, fmt.Errorf("read %s: %w", source, err)
	}
	return extractor.ExtractContext(ctx, html)
}
