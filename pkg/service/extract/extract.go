package extract

import (
	"context"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
	"github.com/secmon-lab/mnemosyne/pkg/utils/safe"
)

// Extractor reads plain text files and the text layer of PDFs. Scanned
// PDFs without a text layer yield no text.
type Extractor struct{}

var _ interfaces.TextExtractor = &Extractor{}

func init() {
	// keep pdfcpu from creating its config directory under the user's home
	pdfmodel.ConfigPath = "disable"
}

func New() *Extractor {
	return &Extractor{}
}

// Extract returns "" on any failure; the caller treats that as an ingestion failure
func (x *Extractor) Extract(ctx context.Context, path string, fileType types.FileType) string {
	var (
		text string
		err  error
	)

	switch fileType {
	case types.FileTypeText:
		text, err = readText(path)
	case types.FileTypePDF:
		text, err = readPDF(ctx, path)
	default:
		err = goerr.New("unsupported file type")
	}

	if err != nil {
		logging.From(ctx).Warn("failed to extract text",
			"error", err,
			model.FilePathKey, path,
			model.FileTypeKey, fileType,
		)
		return ""
	}
	return text
}

func readText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read text file", goerr.V(model.FilePathKey, path))
	}
	return strings.ToValidUTF8(string(raw), ""), nil
}

func readPDF(ctx context.Context, path string) (text string, err error) {
	// the text layer parser panics on some malformed font tables
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = goerr.New("panic while reading PDF", goerr.V(model.FilePathKey, path), goerr.V("panic", r))
		}
	}()

	// pdfcpu validates the document structure before the text layer is read
	pages, err := api.PageCountFile(path)
	if err != nil {
		return "", goerr.Wrap(err, "invalid PDF", goerr.V(model.FilePathKey, path))
	}
	if pages == 0 {
		return "", goerr.New("PDF has no pages", goerr.V(model.FilePathKey, path))
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", goerr.Wrap(err, "failed to open PDF", goerr.V(model.FilePathKey, path))
	}
	defer safe.Close(ctx, f)

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", goerr.Wrap(err, "failed to read PDF page",
				goerr.V(model.FilePathKey, path), goerr.V("page", i))
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}

	logging.From(ctx).Debug("PDF text extracted",
		model.FilePathKey, path,
		"pages", pages,
		"chars", sb.Len(),
	)
	return sb.String(), nil
}
