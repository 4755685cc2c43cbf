package daemon

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/padbatt/pkg/config"
	"github.com/charlie0129/padbatt/pkg/events"
	"github.com/charlie0129/padbatt/pkg/input"
	"github.com/charlie0129/padbatt/pkg/monitor"
	"github.com/charlie0129/padbatt/pkg/version"
)

// keepAliveInterval is how often an idle event stream gets a ping, so dead
// clients are noticed.
const keepAliveInterval = 15 * time.Second

func abort(c *gin.Context, code int, err error) {
	c.IndentedJSON(code, err.Error())
	_ = c.AbortWithError(code, err)
}

func (s *server) getSnapshot(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.monitor.Snapshot())
}

func (s *server) getStatus(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.monitor.Status())
}

func (s *server) getControllers(c *gin.Context) {
	attached := s.watcher.Attached()
	ret := make([]input.ControllerInfo, 0, len(attached))
	for _, h := range attached {
		ret = append(ret, input.Describe(h))
	}
	c.IndentedJSON(http.StatusOK, ret)
}

func (s *server) getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(s.conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func (s *server) setUpdateFrequency(c *gin.Context) {
	var ms int
	if err := c.BindJSON(&ms); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	if err := s.conf.SetUpdateFrequencyMs(ms); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if err := s.conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		abort(c, http.StatusInternalServerError, err)
		return
	}

	if err := s.monitor.SetUpdateFrequency(time.Duration(ms) * time.Millisecond); err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set update frequency to %dms", ms)

	c.IndentedJSON(http.StatusCreated, "ok")
}

func (s *server) setNotifications(c *gin.Context) {
	var enabled bool
	if err := c.BindJSON(&enabled); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	s.conf.SetNotifications(enabled)
	if err := s.conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		abort(c, http.StatusInternalServerError, err)
		return
	}
	s.dispatcher.SetEnabled(enabled)

	if enabled {
		logrus.Info("desktop notifications enabled")
	} else {
		logrus.Info("desktop notifications disabled")
	}

	c.IndentedJSON(http.StatusCreated, "ok")
}

func (s *server) setMultiControllerPolicy(c *gin.Context) {
	var raw string
	if err := c.BindJSON(&raw); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	p, err := monitor.ParsePolicy(raw)
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	if err := s.conf.SetMultiControllerPolicy(string(p)); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if err := s.conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		abort(c, http.StatusInternalServerError, err)
		return
	}
	s.monitor.SetPolicy(p)

	logrus.Infof("set multi-controller policy to %s", p)

	c.IndentedJSON(http.StatusCreated, "ok")
}

// streamEvents sends hub events as server-sent events. The current snapshot
// is sent first so clients start in sync.
func (s *server) streamEvents(c *gin.Context) {
	ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(ch)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.SSEvent(events.SnapshotUpdated, s.monitor.Snapshot())
	c.Writer.Flush()

	ping := time.NewTicker(keepAliveInterval)
	defer ping.Stop()

	c.Stream(func(io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-s.closing:
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		case <-ping.C:
			c.SSEvent(events.Ping, "{}")
			return true
		}
	})
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}
