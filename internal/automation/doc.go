// Package automation defines the capability contracts for driving the target
// site's browser UI. The engine consumes these interfaces; the concrete
// page-interaction logic lives behind them and is supplied at wiring time.
package automation
