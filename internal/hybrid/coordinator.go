package hybrid

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/menulens/menu-ocr-mcp/internal/ocr"
)

// Defaults for ProcessOptions.
const (
	// DefaultConfidenceFloor is the cloud confidence below which a local
	// backup attempt is made for arbitration.
	DefaultConfidenceFloor = 20

	// DefaultMaxTime bounds the cloud attempt. Expiry is treated as a
	// cloud failure and triggers the fallback path.
	DefaultMaxTime = 45 * time.Second
)

// CloudEngine is the capability set the coordinator requires from the
// cloud recognition client. It differs from ocr.Engine only in that
// initialization takes a credential and the credential can be probed.
type CloudEngine interface {
	Initialize(credential string) error
	ProcessImage(ctx context.Context, photo []byte, opts ocr.ProcessOptions) (*ocr.Result, error)
	TestCredential(ctx context.Context) (bool, error)
	Status() ocr.EngineStatus
	Cleanup() error
}

// ProcessOptions tunes one coordinator request.
type ProcessOptions struct {
	// ForceLocal skips the cloud path entirely.
	ForceLocal bool `json:"force_local"`

	// ConfidenceFloor is the minimum cloud confidence that avoids a local
	// backup attempt. Zero means DefaultConfidenceFloor.
	ConfidenceFloor int `json:"confidence_floor"`

	// MaxTime bounds the cloud attempt. Zero means DefaultMaxTime.
	MaxTime time.Duration `json:"max_time"`

	// Language is the recognition language hint passed to the engines.
	Language string `json:"language"`

	// SkipPreprocess disables image optimization and local preprocessing.
	SkipPreprocess bool `json:"skip_preprocess"`
}

func (o ProcessOptions) withDefaults() ProcessOptions {
	if o.ConfidenceFloor == 0 {
		o.ConfidenceFloor = DefaultConfidenceFloor
	}
	if o.MaxTime <= 0 {
		o.MaxTime = DefaultMaxTime
	}
	return o
}

func (o ProcessOptions) engineOptions(onProgress ocr.ProgressFunc) ocr.ProcessOptions {
	return ocr.ProcessOptions{
		Language:        o.Language,
		PreprocessImage: !o.SkipPreprocess,
		OnProgress:      onProgress,
	}
}

// InitOptions configures Coordinator.Initialize.
type InitOptions struct {
	// CloudCredential, when non-empty, configures the cloud client
	// during initialization. Empty means local-only startup.
	CloudCredential string

	// OnProgress receives local engine initialization progress.
	OnProgress ocr.ProgressFunc
}

// Status is the coordinator's externally visible state.
type Status struct {
	Initialized bool            `json:"initialized"`
	HasCloud    bool            `json:"has_cloud"`
	HasLocal    bool            `json:"has_local"`
	Statistics  UsageStatistics `json:"statistics"`
	Engines     EnginesStatus   `json:"engines"`
}

// EnginesStatus carries the per-engine lifecycle state.
type EnginesStatus struct {
	Cloud *ocr.EngineStatus `json:"cloud,omitempty"`
	Local *ocr.EngineStatus `json:"local,omitempty"`
}

// Coordinator owns both recognition engines and decides, per request,
// which to invoke, how to arbitrate between their results, and when to
// fall back. Construct once at application start with NewCoordinator.
type Coordinator struct {
	local    ocr.Engine
	newCloud func() CloudEngine
	logger   *log.Logger

	mu          sync.Mutex // guards cloud, initialized, stats
	cloud       CloudEngine
	initialized bool
	stats       UsageStatistics

	progress progressHub
}

// NewCoordinator wires the coordinator with its engines. The local engine
// is required; cloudFactory constructs a cloud client on demand, so the
// cloud path can appear and disappear at runtime as credentials change.
// A nil logger discards coordinator logging.
func NewCoordinator(local ocr.Engine, cloudFactory func() CloudEngine, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.New(discard{}, "", 0)
	}
	return &Coordinator{
		local:    local,
		newCloud: cloudFactory,
		logger:   logger,
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// Subscribe registers a progress listener. Listeners receive every
// request's milestone events synchronously.
func (c *Coordinator) Subscribe(l ProgressListener) {
	c.progress.subscribe(l)
}

// Initialize eagerly prepares the local engine and, when a credential is
// supplied, configures the cloud client. A credential failure is returned
// to the caller; the coordinator stays usable in local-only mode.
func (c *Coordinator) Initialize(ctx context.Context, opts InitOptions) error {
	if c.local == nil {
		return ocr.NewStateError("no local engine configured")
	}
	if err := c.local.Initialize(ctx, opts.OnProgress); err != nil {
		return fmt.Errorf("local engine initialization failed: %w", err)
	}

	c.mu.Lock()
	c.initialized = true
	c.mu.Unlock()

	if opts.CloudCredential != "" {
		if err := c.UpdateCredential(opts.CloudCredential); err != nil {
			return err
		}
	}
	return nil
}

// UpdateCredential reconfigures the cloud capability at runtime.
//
// An empty value clears the cloud client entirely; subsequent requests
// run local-only. A non-empty value builds and initializes a fresh cloud
// client; on failure the coordinator reverts to local-only and the
// configuration error is returned.
func (c *Coordinator) UpdateCredential(value string) error {
	c.mu.Lock()
	old := c.cloud
	c.cloud = nil
	c.mu.Unlock()
	if old != nil {
		old.Cleanup()
	}

	if value == "" {
		c.logger.Printf("cloud credential cleared; running local-only")
		return nil
	}

	client := c.newCloud()
	if err := client.Initialize(value); err != nil {
		c.logger.Printf("cloud credential rejected: %v; running local-only", err)
		return err
	}

	c.mu.Lock()
	c.cloud = client
	c.mu.Unlock()
	c.logger.Printf("cloud recognition configured")
	return nil
}

// TestCredential probes the configured cloud credential with a minimal
// recognition call. Fails with a state error when no cloud client is
// configured.
func (c *Coordinator) TestCredential(ctx context.Context) (bool, error) {
	cloud := c.currentCloud()
	if cloud == nil {
		return false, ocr.NewStateError("no cloud client configured")
	}
	return cloud.TestCredential(ctx)
}

// ProcessImage runs one photo through the per-request state machine and
// returns exactly one result or one error.
//
// The result's source tag records the path taken; FallbackReason carries
// the original cloud error message when a failure-triggered fallback
// occurred. Statistics are updated exactly once per completed request and
// never for failed ones.
func (c *Coordinator) ProcessImage(ctx context.Context, photo []byte, opts ProcessOptions) (*ocr.Result, error) {
	opts = opts.withDefaults()
	requestID := uuid.NewString()
	start := time.Now()

	c.publish(requestID, "started", "recognition started", progressStart)

	cloud := c.currentCloud()
	cloudAvailable := cloud != nil

	if !cloudAvailable || opts.ForceLocal {
		return c.processLocalOnly(ctx, requestID, photo, opts, start, cloudAvailable)
	}

	c.publish(requestID, "cloud_processing", "sending capture to cloud recognition", progressCloudAttempt)

	cloudCtx, cancel := context.WithTimeout(ctx, opts.MaxTime)
	cloudResult, cloudErr := cloud.ProcessImage(cloudCtx, photo, opts.engineOptions(nil))
	cancel()

	if cloudErr != nil {
		return c.processFallback(ctx, requestID, photo, opts, start, cloudErr)
	}

	if cloudResult.Confidence >= opts.ConfidenceFloor {
		c.publish(requestID, "cloud_processing", "cloud recognition complete", progressAttemptDone)
		cloudResult.Stamp(ocr.SourceCloud, time.Since(start), true)
		c.recordStats(time.Since(start), true, false, false)
		c.publish(requestID, "completed", "recognition complete", progressDone)
		return cloudResult, nil
	}

	return c.processBackup(ctx, requestID, photo, opts, start, cloudResult)
}

// processLocalOnly handles requests that never attempt the cloud path.
// Local engine errors propagate directly, without reclassification.
func (c *Coordinator) processLocalOnly(ctx context.Context, requestID string, photo []byte, opts ProcessOptions, start time.Time, cloudAvailable bool) (*ocr.Result, error) {
	result, err := c.runLocal(ctx, requestID, photo, opts)
	if err != nil {
		c.fail(requestID, err)
		return nil, err
	}

	result.Stamp(ocr.SourceLocalOnly, time.Since(start), cloudAvailable)
	c.recordStats(time.Since(start), false, true, false)
	c.publish(requestID, "completed", "recognition complete", progressDone)
	return result, nil
}

// processFallback handles a failed cloud attempt: the error becomes the
// fallback reason and the local engine takes over. If the local attempt
// also fails, its error is the single aggregated failure the caller sees.
func (c *Coordinator) processFallback(ctx context.Context, requestID string, photo []byte, opts ProcessOptions, start time.Time, cloudErr error) (*ocr.Result, error) {
	c.logger.Printf("cloud recognition failed (%s), falling back to local: %v", ocr.CodeOf(cloudErr), cloudErr)

	if c.local == nil {
		c.fail(requestID, cloudErr)
		return nil, cloudErr
	}

	result, err := c.runLocal(ctx, requestID, photo, opts)
	if err != nil {
		c.fail(requestID, err)
		return nil, fmt.Errorf("cloud and local recognition both failed: %w", err)
	}

	reason := cloudErr.Error()
	result.FallbackReason = &reason
	result.Stamp(ocr.SourceLocalFallback, time.Since(start), true)
	c.recordStats(time.Since(start), true, true, true)
	c.publish(requestID, "completed", "recognition complete after fallback", progressDone)
	return result, nil
}

// processBackup handles a low-confidence cloud result: the local engine
// runs as a backup and the higher confidence wins arbitration. A local
// failure during backup is not fatal; the cloud result stands.
func (c *Coordinator) processBackup(ctx context.Context, requestID string, photo []byte, opts ProcessOptions, start time.Time, cloudResult *ocr.Result) (*ocr.Result, error) {
	c.logger.Printf("cloud confidence %d below floor %d, running local backup", cloudResult.Confidence, opts.ConfidenceFloor)

	localResult, err := c.runLocal(ctx, requestID, photo, opts)
	if err != nil || cloudResult.Confidence >= localResult.Confidence {
		cloudResult.Stamp(ocr.SourceCloudPrimary, time.Since(start), true)
		c.recordStats(time.Since(start), true, err == nil, false)
		c.publish(requestID, "completed", "recognition complete", progressDone)
		return cloudResult, nil
	}

	localResult.Stamp(ocr.SourceLocalBackup, time.Since(start), true)
	c.recordStats(time.Since(start), true, true, true)
	c.publish(requestID, "completed", "recognition complete", progressDone)
	return localResult, nil
}

// runLocal invokes the local engine with its progress scaled into the
// coordinator's 40..80 band.
func (c *Coordinator) runLocal(ctx context.Context, requestID string, photo []byte, opts ProcessOptions) (*ocr.Result, error) {
	if c.local == nil {
		return nil, ocr.NewStateError("no local engine configured")
	}
	onProgress := func(p int, message string) {
		c.publish(requestID, "local_processing", message, scaleLocalProgress(p))
	}
	return c.local.ProcessImage(ctx, photo, opts.engineOptions(onProgress))
}

// Status reports coordinator and per-engine state plus usage statistics.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	cloud := c.cloud
	initialized := c.initialized
	stats := c.stats
	c.mu.Unlock()

	status := Status{
		Initialized: initialized,
		HasCloud:    cloud != nil,
		HasLocal:    c.local != nil,
		Statistics:  stats,
	}
	if cloud != nil {
		s := cloud.Status()
		status.Engines.Cloud = &s
	}
	if c.local != nil {
		s := c.local.Status()
		status.Engines.Local = &s
	}
	return status
}

// Cleanup tears down both engines and forgets the cloud client.
// Idempotent: repeated calls are no-ops.
func (c *Coordinator) Cleanup() error {
	c.mu.Lock()
	cloud := c.cloud
	c.cloud = nil
	c.initialized = false
	c.mu.Unlock()

	if cloud != nil {
		cloud.Cleanup()
	}
	if c.local != nil {
		return c.local.Cleanup()
	}
	return nil
}

func (c *Coordinator) currentCloud() CloudEngine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cloud
}

func (c *Coordinator) recordStats(elapsed time.Duration, cloudUsed, localUsed, fellBack bool) {
	c.mu.Lock()
	c.stats.record(elapsed, cloudUsed, localUsed, fellBack)
	c.mu.Unlock()
}

func (c *Coordinator) publish(requestID, status, message string, progress int) {
	c.progress.publish(ProgressEvent{
		RequestID: requestID,
		Status:    status,
		Message:   message,
		Progress:  progress,
	})
}

func (c *Coordinator) fail(requestID string, err error) {
	c.publish(requestID, "failed", err.Error(), 0)
}
