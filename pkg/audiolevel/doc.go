// Package audiolevel measures the energy of a live PCM stream the way a
// browser AnalyserNode does, and reports a loud/quiet signal once per
// display frame.
//
// An Analyser keeps the most recent FFTSize samples, applies a Blackman
// window, smooths magnitudes over time and maps them onto a 0-255 byte scale
// between MinDecibels and MaxDecibels. The mean of those bytes is the level.
//
// A Monitor attaches an Analyser to a Source and drives it from a frame
// ticker:
//
//	m := audiolevel.NewMonitor()
//	probe := m.Attach(stream, session.Active, func(r audiolevel.Report) {
//		arbitrator.OnLevel(r.Loud)
//	})
//	defer probe.Stop()
//
// The frame loop checks liveness before every frame and exits as soon as
// the session is inactive or the source ends.
package audiolevel
