// Package panel is a browser control panel for a voice session.
//
// A Panel is a voice.Presenter: status text, speaking flags and the output
// level intensity are pushed to every connected page over a websocket. The
// page's switch posts to /api/toggle, which starts or stops the session.
package panel
