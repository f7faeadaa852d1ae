package predict

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds every prediction request independently of the transport.
const DefaultTimeout = 5 * time.Second

// Options configures a Client. ConfidenceThreshold and SmoothingFrames are
// forwarded to the endpoint as hints; the stabilizer enforces them locally.
type Options struct {
	Endpoint            string
	Timeout             time.Duration
	ConfidenceThreshold float64
	SmoothingFrames     int
	EnableLandmarks     bool
}

// Client posts captured frames to the prediction endpoint.
type Client struct {
	http *resty.Client
	opts Options
	now  func() time.Time
}

// NewClient creates a Client for opts.Endpoint.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	http := resty.New().
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(0)

	return &Client{
		http: http,
		opts: opts,
		now:  time.Now,
	}
}

// Predict sends one JPEG frame and returns the decoded response.
// Cancelling ctx aborts the request and yields ErrCanceled.
func (c *Client) Predict(ctx context.Context, jpeg []byte, frameID uint64) (Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	body := Request{
		Image:               EncodeDataURI(jpeg),
		ConfidenceThreshold: c.opts.ConfidenceThreshold,
		SmoothingFrames:     c.opts.SmoothingFrames,
		EnableLandmarks:     c.opts.EnableLandmarks,
		RequestTimestamp:    c.now().UnixMilli(),
		FrameID:             frameID,
	}

	resp, err := c.http.R().
		SetContext(reqCtx).
		SetBody(body).
		Post(c.opts.Endpoint)
	if err != nil {
		return Response{}, c.classify(ctx, reqCtx, err)
	}

	if !resp.IsSuccess() {
		return Response{}, &HTTPError{StatusCode: resp.StatusCode(), Status: resp.Status()}
	}

	return DecodeResponse(resp.Body())
}

// classify maps a transport error onto the prediction taxonomy.
func (c *Client) classify(parent, reqCtx context.Context, err error) error {
	switch {
	case errors.Is(parent.Err(), context.Canceled):
		return ErrCanceled
	case errors.Is(reqCtx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w after %s", ErrTimeout, c.opts.Timeout)
	default:
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
}
