package uploadcheck

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"

	"github.com/okian/resumescore/internal/domain/intake"
	"github.com/okian/resumescore/pkg/logger"
)

// Every tooLargeEvery-th upload exceeds the size limit and every
// wrongTypeEvery-th one has an unsupported type.
const (
	tooLargeEvery  = 5
	wrongTypeEvery = 7
	maxValidSize   = 512 * 1024
)

func randomSize(limit int64) int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(limit))
	if err != nil {
		return limit / 2
	}
	return n.Int64() + 1
}

// generateUploads builds a deterministic mix of acceptable and rejected
// uploads. Too-large wins over wrong-type, like the intake gate.
func generateUploads(ctx context.Context, cfg *Config, stats *Stats) []Upload {
	logger.Get().Info(ctx, "generating uploads", logger.Int("uploads", cfg.NumUploads))

	uploads := make([]Upload, cfg.NumUploads)
	for i := range uploads {
		n := i + 1
		switch {
		case n%tooLargeEvery == 0:
			uploads[i] = Upload{
				Name:     fmt.Sprintf("large-%d.png", n),
				MIMEType: "image/png",
				Size:     intake.MaxFileSize + randomSize(1024),
				Expect:   http.StatusRequestEntityTooLarge,
				Code:     intake.CodeFileTooLarge,
			}
		case n%wrongTypeEvery == 0:
			uploads[i] = Upload{
				Name:     fmt.Sprintf("notes-%d.txt", n),
				MIMEType: "text/plain",
				Size:     randomSize(maxValidSize),
				Expect:   http.StatusUnsupportedMediaType,
				Code:     intake.CodeUnsupportedFileType,
			}
		case n%2 == 0:
			uploads[i] = Upload{Name: fmt.Sprintf("resume-%d.docx", n), MIMEType: intake.MIMEDOCX, Size: randomSize(maxValidSize), Expect: http.StatusAccepted}
		default:
			uploads[i] = Upload{Name: fmt.Sprintf("resume-%d.pdf", n), MIMEType: intake.MIMEPDF, Size: randomSize(maxValidSize), Expect: http.StatusAccepted}
		}
	}
	stats.Generated = len(uploads)
	return uploads
}
