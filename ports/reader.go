package ports

import (
	"context"
	"io"

	"surveyclean/domain/dataset"
)

// DatasetReader loads a tabular file into a dataset. Every row carries the
// header's logical column set; cells are coerced at this boundary.
type DatasetReader interface {
	Read(ctx context.Context, name string, r io.Reader) (*dataset.Dataset, error)
}

// DatasetWriter exports a dataset read-only
type DatasetWriter interface {
	Write(ctx context.Context, w io.Writer, ds *dataset.Dataset) error
}
