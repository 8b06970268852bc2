package report

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/leafscan/fusionnet/inference"
)

// JSONAssembler renders the classification result as an indented JSON
// document. It is the assembler the serving layer ships with; richer
// renderers (advisory text, PDF) plug in through the same interface.
type JSONAssembler struct{}

// Assemble implements Assembler.
//
// Suppression comes for free: a rejected Result already carries no class
// fields, so its document holds only the authenticity score, the rejection
// flag and the image metadata.
func (JSONAssembler) Assemble(ctx context.Context, result *inference.Result) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.New("report.Assemble: nil result")
	}
	content, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, errors.Wrapf(err, "report.Assemble: encoding result %s", result.ID)
	}
	return &Document{
		Filename:    result.ID + ".json",
		ContentType: "application/json",
		Content:     content,
	}, nil
}
