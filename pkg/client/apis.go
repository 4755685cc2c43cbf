package client

import (
	"encoding/json"
	"strconv"

	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/padbatt/pkg/config"
	"github.com/charlie0129/padbatt/pkg/controller"
	"github.com/charlie0129/padbatt/pkg/input"
	"github.com/charlie0129/padbatt/pkg/monitor"
)

func getJSON[T any](c *Client, path, what string) (*T, error) {
	ret, err := c.Get(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get %s", what)
	}

	var v T
	if err := json.Unmarshal([]byte(ret), &v); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal %s", what)
	}
	return &v, nil
}

func (c *Client) GetSnapshot() (*controller.Snapshot, error) {
	return getJSON[controller.Snapshot](c, "/snapshot", "snapshot")
}

func (c *Client) GetStatus() (*monitor.Status, error) {
	return getJSON[monitor.Status](c, "/status", "status")
}

func (c *Client) GetControllers() ([]input.ControllerInfo, error) {
	ret, err := getJSON[[]input.ControllerInfo](c, "/controllers", "controllers")
	if err != nil {
		return nil, err
	}
	return *ret, nil
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	return getJSON[config.RawFileConfig](c, "/config", "config")
}

func (c *Client) SetUpdateFrequency(ms int) (string, error) {
	return c.Put("/update-frequency", strconv.Itoa(ms))
}

func (c *Client) SetNotifications(enabled bool) (string, error) {
	return c.Put("/notifications", strconv.FormatBool(enabled))
}

func (c *Client) SetMultiControllerPolicy(p monitor.Policy) (string, error) {
	payload, err := json.Marshal(string(p))
	if err != nil {
		return "", err
	}
	return c.Put("/multi-controller-policy", string(payload))
}

func (c *Client) GetVersion() (string, error) {
	ret, err := getJSON[string](c, "/version", "version")
	if err != nil {
		return "", err
	}
	return *ret, nil
}
