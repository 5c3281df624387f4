package hybrid

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/menulens/menu-ocr-mcp/internal/ocr"
)

// Comparison is the outcome of running both engines on the same photo.
type Comparison struct {
	// Cloud and Local are the raw per-engine results; nil when that
	// engine failed or is unavailable.
	Cloud *ocr.Result `json:"cloud,omitempty"`
	Local *ocr.Result `json:"local,omitempty"`

	// CloudError and LocalError carry the failure messages for engines
	// that produced no result.
	CloudError string `json:"cloud_error,omitempty"`
	LocalError string `json:"local_error,omitempty"`

	// ConfidenceDifference is cloud confidence minus local confidence.
	ConfidenceDifference int `json:"confidence_difference"`

	// TimeDifferenceMs is cloud elapsed time minus local elapsed time.
	TimeDifferenceMs int64 `json:"time_difference_ms"`

	// WordCountDifference is cloud word count minus local word count.
	WordCountDifference int `json:"word_count_difference"`

	// Recommendation names the engine that scored higher; ties favor
	// cloud.
	Recommendation string `json:"recommendation"`
}

// CompareEngines runs both engines on the same photo unconditionally,
// bypassing the fallback state machine. It is a diagnostic path: the two
// attempts run in parallel, usage statistics are not touched, and both
// raw results are returned alongside their deltas.
//
// An error is returned only when neither engine produced a result.
func (c *Coordinator) CompareEngines(ctx context.Context, photo []byte, opts ProcessOptions) (*Comparison, error) {
	opts = opts.withDefaults()
	cloud := c.currentCloud()

	var (
		cloudResult, localResult *ocr.Result
		cloudErr, localErr       error
	)

	g, gctx := errgroup.WithContext(ctx)
	if cloud != nil {
		g.Go(func() error {
			start := time.Now()
			cloudResult, cloudErr = cloud.ProcessImage(gctx, photo, opts.engineOptions(nil))
			if cloudResult != nil {
				cloudResult.Stamp(ocr.SourceCloud, time.Since(start), true)
			}
			return nil
		})
	} else {
		cloudErr = ocr.NewStateError("no cloud client configured")
	}
	if c.local != nil {
		g.Go(func() error {
			start := time.Now()
			localResult, localErr = c.local.ProcessImage(gctx, photo, opts.engineOptions(nil))
			if localResult != nil {
				localResult.Stamp(ocr.SourceLocal, time.Since(start), cloud != nil)
			}
			return nil
		})
	} else {
		localErr = ocr.NewStateError("no local engine configured")
	}
	_ = g.Wait()

	if cloudResult == nil && localResult == nil {
		return nil, fmt.Errorf("both engines failed: cloud: %v; local: %v", cloudErr, localErr)
	}

	cmp := &Comparison{Cloud: cloudResult, Local: localResult}
	if cloudErr != nil {
		cmp.CloudError = cloudErr.Error()
	}
	if localErr != nil {
		cmp.LocalError = localErr.Error()
	}

	var cloudConf, localConf, cloudWords, localWords int
	var cloudMs, localMs int64
	if cloudResult != nil {
		cloudConf, cloudWords, cloudMs = cloudResult.Confidence, cloudResult.WordCount, cloudResult.ElapsedMs
	}
	if localResult != nil {
		localConf, localWords, localMs = localResult.Confidence, localResult.WordCount, localResult.ElapsedMs
	}
	cmp.ConfidenceDifference = cloudConf - localConf
	cmp.TimeDifferenceMs = cloudMs - localMs
	cmp.WordCountDifference = cloudWords - localWords

	// Higher confidence wins; ties favor cloud. An engine that failed
	// scored nothing and cannot win.
	switch {
	case cloudResult == nil:
		cmp.Recommendation = "local"
	case localResult == nil:
		cmp.Recommendation = "cloud"
	case localConf > cloudConf:
		cmp.Recommendation = "local"
	default:
		cmp.Recommendation = "cloud"
	}
	return cmp, nil
}
