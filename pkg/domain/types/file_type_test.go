package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
)

func TestParseFileType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    types.FileType
		wantErr bool
	}{
		{name: "pdf", input: "pdf", want: types.FileTypePDF},
		{name: "upper case with dot", input: ".TXT", want: types.FileTypeText},
		{name: "surrounding spaces", input: " pdf ", want: types.FileTypePDF},
		{name: "docx is not supported", input: "docx", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := types.ParseFileType(tt.input)
			if tt.wantErr {
				gt.Value(t, err).NotNil()
				return
			}
			gt.NoError(t, err).Required()
			gt.Value(t, got).Equal(tt.want)
		})
	}
}

func TestFileTypeFromName(t *testing.T) {
	ft, err := types.FileTypeFromName("annual-report.v2.PDF")
	gt.NoError(t, err).Required()
	gt.Value(t, ft).Equal(types.FileTypePDF)

	_, err = types.FileTypeFromName("README")
	gt.Value(t, err).NotNil()

	_, err = types.FileTypeFromName("slides.pptx")
	gt.Value(t, err).NotNil()
}

func TestAllFileTypes(t *testing.T) {
	for _, ft := range types.AllFileTypes() {
		gt.Bool(t, ft.IsValid()).True()
	}
	gt.Bool(t, types.FileType("md").IsValid()).False()
}
