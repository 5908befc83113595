// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_audio

// AudioConfig describes a PCM stream layout.
type AudioConfig struct {
	SampleRate uint32
	Channels   uint16
}

// INTERVIEW_INTERNAL_AUDIO_CONFIG is the fixed format of every encoded answer
// artifact: 16 kHz mono LINEAR16. Device-rate capture is resampled to this
// at stop time.
var INTERVIEW_INTERNAL_AUDIO_CONFIG = AudioConfig{
	SampleRate: 16000,
	Channels:   1,
}
