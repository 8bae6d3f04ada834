package analysis

// PeakFrequencyHz returns the frequency (Hz) and magnitude of the strongest
// bin in data's power spectrum below the Nyquist frequency. len(data) must
// be a power of two. Debug/test tooling for verifying filter rolloff, not
// used on the audio callback's hot path.
func PeakFrequencyHz(data []float64, sampleRate float64) (hz, magnitude float64) {
	ps := PowerSpectrum(data)
	if len(ps) == 0 {
		return 0, 0
	}
	peakBin := 0
	for i, v := range ps {
		if v > ps[peakBin] {
			peakBin = i
		}
	}
	binHz := sampleRate / float64(len(data))
	return float64(peakBin) * binHz, ps[peakBin]
}

// magnitudeAtHz returns the power-spectrum magnitude of the bin nearest hz.
// Unexported: only this package's own tests exercise it as a debug helper;
// GetOutputSpectrum/PeakFrequencyHz cover the production spectral path.
func magnitudeAtHz(data []float64, sampleRate, hz float64) float64 {
	ps := PowerSpectrum(data)
	if len(ps) == 0 {
		return 0
	}
	binHz := sampleRate / float64(len(data))
	bin := int(hz/binHz + 0.5)
	if bin < 0 {
		bin = 0
	}
	if bin >= len(ps) {
		bin = len(ps) - 1
	}
	return ps[bin]
}
