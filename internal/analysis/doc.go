// Package analysis provides FFT-based spectral verification helpers.
//
// [FFT] and [PowerSpectrum] are the only tools kept from the teacher's
// chaos/dynamics analysis package; WFS rendering has no Lyapunov exponents
// or bifurcation diagrams to compute. What survives is spectral debug
// tooling: verifying that a biquad HF-shelf or the binaural engine's
// distance-proportional shelf actually rolls off high frequencies the
// expected amount, and (via internal/telemetry) an optional spectral
// snapshot for offline inspection of a metering session. This is debug/test
// tooling, not anything on the audio callback's hot path.
package analysis
