package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"encore/internal/domain"
	"encore/internal/logger"
	"encore/internal/slack"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"golang.org/x/time/rate"
)

// AlertNotifier receives failure reports from the execution tracker
type AlertNotifier interface {
	NotifyFailure(ctx context.Context, report domain.FailureReport) error
}

// AlertRoute sends reports matching Rule to Channel
type AlertRoute struct {
	Rule    string `yaml:"rule"`
	Channel string `yaml:"channel"`
}

// AlertConfig configures the alert dispatcher
type AlertConfig struct {
	MaxPerHour     int
	DefaultChannel string
	Routes         []AlertRoute
	SendTimeout    time.Duration
}

// alertEnv is the environment routing rules are evaluated against
type alertEnv struct {
	JobID       string `expr:"job_id"`
	JobName     string `expr:"job_name"`
	Schedule    string `expr:"schedule"`
	Description string `expr:"description"`
	Error       string `expr:"error"`
}

type compiledRoute struct {
	rule    string
	channel string
	program *vm.Program
}

// AlertDispatcher turns failure reports into rate limited Slack messages
type AlertDispatcher struct {
	client         slack.Client
	limiter        *rate.Limiter
	routes         []compiledRoute
	defaultChannel string
	sendTimeout    time.Duration
	now            func() time.Time
	logger         logger.Logger
}

// NewAlertDispatcher compiles the routing rules and sets up a token bucket holding
// MaxPerHour tokens that refills at MaxPerHour per hour
func NewAlertDispatcher(client slack.Client, cfg AlertConfig, log logger.Logger) (*AlertDispatcher, error) {
	if cfg.MaxPerHour <= 0 {
		return nil, fmt.Errorf("alert rate limit must be positive, got %d", cfg.MaxPerHour)
	}
	if cfg.DefaultChannel == "" {
		return nil, fmt.Errorf("alert default channel is required")
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}

	routes := make([]compiledRoute, 0, len(cfg.Routes))
	for _, route := range cfg.Routes {
		program, err := expr.Compile(route.Rule, expr.Env(alertEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("failed to compile alert rule %q: %w", route.Rule, err)
		}
		routes = append(routes, compiledRoute{
			rule:    route.Rule,
			channel: route.Channel,
			program: program,
		})
	}

	return &AlertDispatcher{
		client:         client,
		limiter:        rate.NewLimiter(rate.Every(time.Hour/time.Duration(cfg.MaxPerHour)), cfg.MaxPerHour),
		routes:         routes,
		defaultChannel: cfg.DefaultChannel,
		sendTimeout:    cfg.SendTimeout,
		now:            time.Now,
		logger:         log.With(logger.String("component", "alert_dispatcher")),
	}, nil
}

// NotifyFailure sends one alert for report unless the hourly budget is spent.
// Dropped alerts are logged and are not an error.
func (d *AlertDispatcher) NotifyFailure(ctx context.Context, report domain.FailureReport) error {
	if !d.limiter.AllowN(d.now(), 1) {
		d.logger.Warn("alert rate limit reached, dropping failure alert",
			logger.String("job_id", report.JobID),
			logger.String("run_id", report.RunID),
			logger.String("error", report.Error),
		)
		return nil
	}

	channel := d.channelFor(report)

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	if err := d.client.Send(sendCtx, slack.Message{Channel: channel, Text: formatFailure(report)}); err != nil {
		return fmt.Errorf("failed to deliver alert for job %s: %w", report.JobID, err)
	}

	d.logger.Info("failure alert sent",
		logger.String("job_id", report.JobID),
		logger.String("channel", channel),
	)
	return nil
}

func (d *AlertDispatcher) channelFor(report domain.FailureReport) string {
	env := alertEnv{
		JobID:       report.JobID,
		JobName:     report.JobName,
		Schedule:    report.Schedule,
		Description: report.Description,
		Error:       report.Error,
	}

	for _, route := range d.routes {
		result, err := expr.Run(route.program, env)
		if err != nil {
			d.logger.Warn("alert rule evaluation failed",
				logger.String("rule", route.rule),
				logger.Error(err),
			)
			continue
		}
		if matched, ok := result.(bool); ok && matched {
			return route.channel
		}
	}
	return d.defaultChannel
}

func formatFailure(report domain.FailureReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, ":rotating_light: Scheduled job *%s* (`%s`) failed\n", report.JobName, report.JobID)
	fmt.Fprintf(&b, "*Schedule:* `%s`\n", report.Schedule)
	if report.Description != "" {
		fmt.Fprintf(&b, "*Description:* %s\n", report.Description)
	}
	fmt.Fprintf(&b, "*Failed at:* %s\n", report.FailedAt.Format(time.RFC3339))
	if report.RunID != "" {
		fmt.Fprintf(&b, "*Run:* %s\n", report.RunID)
	}
	fmt.Fprintf(&b, "*Error:* %s", report.Error)
	return b.String()
}
