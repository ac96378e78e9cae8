package provable

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/blockend-dev/AleoWhistle/blockchain/types"
	"github.com/blockend-dev/AleoWhistle/internal/field"
)

// ErrNoReportID is returned when a receipt has no submit_report future carrying a field argument.
var ErrNoReportID = errors.New("receipt carries no report id")

// The finalize future of submit_report lists the derived report id as its first argument.
var futureReportID = regexp.MustCompile(`arguments:\s*\[\s*(\d+)field`)

// ReportID fetches the accepted transaction from the explorer and extracts the report id.
func (c *Client) ReportID(ctx context.Context, finalTxID string) (field.Element, error) {
	target := strings.TrimRight(c.provable().ExplorerURL, "/") + "/transaction/" + url.PathEscape(finalTxID)
	body, err := c.do(ctx, http.MethodGet, target, nil)
	if err != nil {
		return field.Element{}, fmt.Errorf("receipt %s: %w", finalTxID, err)
	}
	return ParseReportID(body)
}

// ParseReportID reads the report id from a raw explorer transaction document.
func ParseReportID(receipt []byte) (field.Element, error) {
	transition := gjson.GetBytes(receipt, `execution.transitions.#(function=="`+string(types.KindSubmitReport)+`")`)
	if !transition.Exists() {
		return field.Element{}, fmt.Errorf("%w: no %s transition", ErrNoReportID, types.KindSubmitReport)
	}
	future := transition.Get(`outputs.#(type=="future").value`).String()
	match := futureReportID.FindStringSubmatch(future)
	if match == nil {
		return field.Element{}, fmt.Errorf("%w: future output has no field argument", ErrNoReportID)
	}
	id, err := field.Parse(match[1])
	if err != nil {
		return field.Element{}, fmt.Errorf("%w: %v", ErrNoReportID, err)
	}
	return id, nil
}
