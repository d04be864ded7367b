package ensemble

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/medledger/claimguard/pkg/errors"
)

// InferenceBackend runs a single model forward pass.  Implementations must be
// safe for concurrent use; the scorer may call Run from multiple requests at
// once.  Backends are swappable at runtime via the scorer's reload path.
type InferenceBackend interface {
	// Name identifies the backend in logs and fraud reports.
	Name() string

	// Run executes the model on one input vector and returns the raw output:
	// a single probability for classifiers, a single score for isolation
	// forests, or a full reconstruction for autoencoders.
	Run(ctx context.Context, input []float64) ([]float64, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// HTTP backend: external model server
// ─────────────────────────────────────────────────────────────────────────────

// httpBackend calls a remote model server over HTTP/JSON.  Transient failures
// are retried with backoff by the underlying retryable client; the context
// deadline still bounds the total wall-clock spend.
type httpBackend struct {
	name     string
	endpoint string
	client   *retryablehttp.Client
}

// NewHTTPBackend constructs a backend that POSTs {"inputs": [...]} to
// endpoint and expects {"outputs": [...]} back.
func NewHTTPBackend(name, endpoint string) InferenceBackend {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 50 * time.Millisecond
	client.RetryWaitMax = 250 * time.Millisecond
	client.Logger = nil
	return &httpBackend{name: name, endpoint: endpoint, client: client}
}

func (b *httpBackend) Name() string { return b.name }

type inferenceRequest struct {
	Inputs []float64 `json:"inputs"`
}

type inferenceResponse struct {
	Outputs []float64 `json:"outputs"`
}

func (b *httpBackend) Run(ctx context.Context, input []float64) ([]float64, error) {
	body, err := json.Marshal(inferenceRequest{Inputs: input})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode inference request")
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInferenceFailed, "failed to build inference request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInferenceFailed,
			fmt.Sprintf("model server %s unreachable", b.name))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.ErrCodeInferenceFailed,
			fmt.Sprintf("model server %s returned status %d", b.name, resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInferenceFailed, "failed to read inference response")
	}

	var out inferenceResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode inference response")
	}
	if len(out.Outputs) == 0 {
		return nil, errors.New(errors.ErrCodeInferenceFailed, "model server returned empty output")
	}
	return out.Outputs, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Logistic backend: in-process supervised fallback
// ─────────────────────────────────────────────────────────────────────────────

// logisticBackend evaluates a logistic regression from metadata coefficients.
// It standardises each feature with the metadata means/stds before applying
// the linear model, matching the training-side preprocessing.
type logisticBackend struct {
	coefficients []float64
	intercept    float64
	means        []float64
	stds         []float64
}

// NewLogisticBackend builds an in-process classifier from metadata.  It
// returns nil when the metadata carries no coefficients.
func NewLogisticBackend(meta *Metadata) InferenceBackend {
	if meta == nil || len(meta.RFCoefficients) == 0 {
		return nil
	}
	return &logisticBackend{
		coefficients: meta.RFCoefficients,
		intercept:    meta.RFIntercept,
		means:        meta.FeatureMeans,
		stds:         meta.FeatureStds,
	}
}

func (b *logisticBackend) Name() string { return "logistic" }

func (b *logisticBackend) Run(_ context.Context, input []float64) ([]float64, error) {
	if len(input) != len(b.coefficients) {
		return nil, errors.New(errors.ErrCodeInferenceFailed,
			fmt.Sprintf("input length %d does not match %d coefficients", len(input), len(b.coefficients)))
	}
	z := b.intercept
	for i, v := range input {
		z += b.coefficients[i] * zscore(v, at(b.means, i, 0), at(b.stds, i, 1))
	}
	return []float64{sigmoid(z)}, nil
}

func at(s []float64, i int, def float64) float64 {
	if i < len(s) {
		return s[i]
	}
	return def
}

// ─────────────────────────────────────────────────────────────────────────────
// Shared numeric helpers
// ─────────────────────────────────────────────────────────────────────────────

// stdEpsilon guards zscore against degenerate distributions.
const stdEpsilon = 1e-12

func zscore(v, mean, std float64) float64 {
	if std <= stdEpsilon {
		return 0
	}
	return (v - mean) / std
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
