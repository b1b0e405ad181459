// Package datarobot integrates with the DataRobot ML platform: project
// creation for the model factory and real-time scoring against deployed
// models.
package datarobot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/alext/moneyrobot/internal/dataset"
	"github.com/alext/moneyrobot/pkg/config"
	"github.com/alext/moneyrobot/pkg/httputil"
	"github.com/alext/moneyrobot/pkg/logger"
)

// Client talks to the DataRobot v2 API. The buy and sell strategies score
// against separate deployments, selected per request.
type Client struct {
	cfg    config.DataRobotConfig
	http   *httputil.Client
	logger *logger.Logger

	// now is swapped in tests to pin project-name timestamps.
	now func() time.Time
}

// New creates a DataRobot client from injected credentials.
func New(cfg config.DataRobotConfig, log *logger.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   httputil.New(log, 60*time.Second),
		logger: log.WithField("module", "datarobot"),
		now:    time.Now,
	}
}

// Project is the subset of a DataRobot project the pipeline cares about.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"projectName"`
}

// CreateProject uploads a training frame as a new autopilot project. The
// project name is the table identifier suffixed with a timestamp so
// repeated sweeps never collide, and the model target is the TARGET
// column.
func (c *Client) CreateProject(ctx context.Context, identifier string, f *dataset.Frame) (*Project, error) {
	name := fmt.Sprintf("%s_%s", identifier, c.now().UTC().Format("20060102T150405"))

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if err := w.WriteField("projectName", name); err != nil {
		return nil, fmt.Errorf("write project name: %w", err)
	}
	if err := w.WriteField("target", "TARGET"); err != nil {
		return nil, fmt.Errorf("write target: %w", err)
	}

	part, err := w.CreateFormFile("file", name+".csv")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if err := dataset.WriteCSVTo(part, f); err != nil {
		return nil, fmt.Errorf("encode training data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize form: %w", err)
	}

	resp, err := c.http.PostRaw(ctx, c.cfg.Endpoint+"/projects/", w.FormDataContentType(), &body, map[string]string{
		"Authorization": "Bearer " + c.cfg.Token,
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	raw, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read project response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("create project: status %d: %s", resp.StatusCode, truncate(raw, 200))
	}

	project := &Project{Name: name}
	// The v2 API returns 202 with a Location header pointing at the async
	// status; the body may carry the project once resolved.
	_ = json.Unmarshal(raw, project)

	c.logger.WithFields(map[string]interface{}{
		"project": name,
		"rows":    f.NumRows(),
	}).Info("Model factory project created")

	return project, nil
}

// Prediction is one scored row from a deployment.
type Prediction struct {
	RowID           int64   `json:"rowId"`
	PredictionValue string  `json:"prediction"`
	Probability     float64 `json:"-"`
}

type predictionResponse struct {
	Data []struct {
		RowID            int64       `json:"rowId"`
		Prediction       interface{} `json:"prediction"`
		PredictionValues []struct {
			Value float64     `json:"value"`
			Label interface{} `json:"label"`
		} `json:"predictionValues"`
	} `json:"data"`
}

// Score sends a frame's rows to the deployment for the given strategy and
// returns one prediction per row, in order. Strategy must be buy or sell;
// each has its own deployment and key.
func (c *Client) Score(ctx context.Context, strategy string, f *dataset.Frame) ([]Prediction, error) {
	deploymentID, deploymentKey, err := c.deployment(strategy)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/deployments/%s/predictions", c.cfg.Endpoint, deploymentID)
	resp, err := c.http.PostJSON(ctx, url, f.Records(), map[string]string{
		"Authorization": "Bearer " + c.cfg.Token,
		"DataRobot-Key": deploymentKey,
	})
	if err != nil {
		return nil, fmt.Errorf("score against %s deployment: %w", strategy, err)
	}

	raw, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read scoring response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("score against %s deployment: status %d: %s", strategy, resp.StatusCode, truncate(raw, 200))
	}

	var parsed predictionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode scoring response: %w", err)
	}

	predictions := make([]Prediction, len(parsed.Data))
	for i, row := range parsed.Data {
		p := Prediction{
			RowID:           row.RowID,
			PredictionValue: fmt.Sprintf("%v", row.Prediction),
		}
		for _, pv := range row.PredictionValues {
			if fmt.Sprintf("%v", pv.Label) == p.PredictionValue {
				p.Probability = pv.Value
			}
		}
		predictions[i] = p
	}

	c.logger.WithFields(map[string]interface{}{
		"strategy": strategy,
		"rows":     len(predictions),
	}).Info("Scored rows against deployment")

	return predictions, nil
}

// deployment resolves the deployment credentials for a strategy.
func (c *Client) deployment(strategy string) (id, key string, err error) {
	switch strategy {
	case "buy":
		id, key = c.cfg.BuyDeploymentID, c.cfg.BuyDeploymentKey
	case "sell":
		id, key = c.cfg.SellDeploymentID, c.cfg.SellDeploymentKey
	default:
		return "", "", fmt.Errorf("no deployment for strategy %q", strategy)
	}
	if id == "" {
		return "", "", fmt.Errorf("%s deployment not configured", strategy)
	}
	return id, key, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
