package fingerprint

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/photo-analyzer/internal/facematch"
	"github.com/kozaktomas/photo-analyzer/internal/imageio"
)

// Object detection defaults.
const (
	DefaultDetectionConf    = 0.4
	DefaultDetectionImgSize = 640
)

// Object is one detected object.
type Object struct {
	Label string         `json:"label"`
	Conf  float64        `json:"conf"`
	BBox  facematch.BBox `json:"bbox"`
}

// DetectOptions are passed through to the detector.
type DetectOptions struct {
	Conf    float64 `json:"conf"`
	ImgSize int     `json:"imgsz"`
}

// withDefaults fills unset options. A confidence of 0 is passed through and
// keeps every detection; only a negative one is replaced. An input size must
// be positive, so zero selects the default.
func (o DetectOptions) withDefaults() DetectOptions {
	if o.Conf < 0 {
		o.Conf = DefaultDetectionConf
	}
	if o.ImgSize <= 0 {
		o.ImgSize = DefaultDetectionImgSize
	}
	return o
}

// ObjectClient calls an object detection server.
type ObjectClient struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewObjectClient creates a detector client for baseURL. A non-positive
// timeout uses DefaultRequestTimeout.
func NewObjectClient(baseURL string, client *http.Client, timeout time.Duration) *ObjectClient {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &ObjectClient{baseURL: strings.TrimSuffix(baseURL, "/"), client: client, timeout: timeout}
}

type detectResponse struct {
	Objects []struct {
		Label string    `json:"label"`
		Conf  float64   `json:"conf"`
		BBox  []float64 `json:"bbox"`
	} `json:"objects"`
}

// DetectObjects runs object detection on img.
func (c *ObjectClient) DetectObjects(ctx context.Context, img *imageio.Image, opts DetectOptions) ([]Object, error) {
	opts = opts.withDefaults()
	fields := map[string]string{
		"conf":  strconv.FormatFloat(opts.Conf, 'f', -1, 64),
		"imgsz": strconv.Itoa(opts.ImgSize),
	}

	body, err := postMultipartImage(ctx, c.client, c.timeout, c.baseURL+"/detect", img.Data, fields)
	if err != nil {
		return nil, err
	}

	var resp detectResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	objects := make([]Object, 0, len(resp.Objects))
	for _, o := range resp.Objects {
		objects = append(objects, Object{
			Label: o.Label,
			Conf:  o.Conf,
			BBox:  facematch.BBoxFromFloats(o.BBox),
		})
	}
	return objects, nil
}

// NoopDetector is used when no object detection server is configured.
type NoopDetector struct{}

// DetectObjects always returns an empty list.
func (NoopDetector) DetectObjects(context.Context, *imageio.Image, DetectOptions) ([]Object, error) {
	return []Object{}, nil
}
