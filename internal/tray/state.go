// Package tray implements the system tray icon and menu for the popup app.
package tray

import "github.com/arcceus/phonecall-popup/internal/models"

// AppState provides tray access to the running application.
type AppState interface {
	Calls() []models.Call
	Answer(callID string)
	Hangup(callID string)
	RequestShutdown()
}
