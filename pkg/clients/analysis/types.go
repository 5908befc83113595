// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package analysis_client

// SetupRequest is the body of the interview-setup call. The role and the
// question count travel in the URL path; only the posting URL goes in the body.
type SetupRequest struct {
	JobURL string `json:"jobUrl"`
}

// SetupResponse carries the generated interview: the backend owns the
// session id and the question list.
type SetupResponse struct {
	SessionID   string   `json:"session_id"`
	Questions   []string `json:"questions"`
	JobPosition string   `json:"job_position"`
	Message     string   `json:"message"`
}

// SpeechAnalysisResponse is the per-answer acoustic and contextual report.
// The acoustic block is passed through for display; this client never
// interprets the individual measures.
type SpeechAnalysisResponse struct {
	SessionID     string  `json:"session_id"`
	QuestionIndex int     `json:"question_index"`
	Text          string  `json:"text"`
	Confidence    float64 `json:"confidence"`
	Emotion       string  `json:"emotion"`

	JitterLocal       float64 `json:"jitter_local"`
	JitterRap         float64 `json:"jitter_rap"`
	JitterPpq5        float64 `json:"jitter_ppq5"`
	ShimmerLocal      float64 `json:"shimmer_local"`
	ShimmerApq3       float64 `json:"shimmer_apq3"`
	ShimmerApq5       float64 `json:"shimmer_apq5"`
	VoiceBreaks       float64 `json:"voice_breaks"`
	IntensityMeanDb   float64 `json:"intensity_mean_db"`
	IntensityMaxDb    float64 `json:"intensity_max_db"`
	IntensityMinDb    float64 `json:"intensity_min_db"`
	RmsIntensityDb    float64 `json:"rms_intensity_db"`
	SyllableDuration  float64 `json:"syllable_duration"`
	SpeechRate        float64 `json:"speech_rate"`
	ArticulationRate  float64 `json:"articulation_rate"`
	PauseDuration     float64 `json:"pause_duration"`
	PauseNumber       float64 `json:"pause_number"`
	SpectralSlope     float64 `json:"spectral_slope"`
	F0Mean            float64 `json:"f0_mean"`
	F0Std             float64 `json:"f0_std"`
	F0Min             float64 `json:"f0_min"`
	F0Max             float64 `json:"f0_max"`
	PitchPeriodMean   float64 `json:"pitch_period_mean"`
	VoicingFraction   float64 `json:"voicing_fraction"`
	UnvoicingFraction float64 `json:"unvoicing_fraction"`
	MeanHarmonicity   float64 `json:"mean_harmonicity"`
	Duration          float64 `json:"duration"`

	SpeechClarity  float64 `json:"speech_clarity"`
	VocalStability float64 `json:"vocal_stability"`
	ProsodyScore   float64 `json:"prosody_score"`
	OverallScore   float64 `json:"overall_score"`
	EndDetected    bool    `json:"end_detected"`

	ContextMatching    float64  `json:"context_matching"`
	SemanticSimilarity float64  `json:"semantic_similarity"`
	KeywordOverlap     float64  `json:"keyword_overlap"`
	IntentMatching     float64  `json:"intent_matching"`
	QuestionType       string   `json:"question_type"`
	ContextGrade       string   `json:"context_grade"`
	Recommendations    []string `json:"recommendations"`
}

// FinalFeedbackResponse is the one-shot aggregate report generated once an
// interview is complete.
type FinalFeedbackResponse struct {
	SessionID        string                 `json:"session_id"`
	OverallScore     float64                `json:"overall_score"`
	IndividualScores []float64              `json:"individual_scores"`
	DeliveryFeedback string                 `json:"delivery_feedback"`
	ToneFeedback     string                 `json:"tone_feedback"`
	RhythmFeedback   string                 `json:"rhythm_feedback"`
	Strengths        []string               `json:"strengths"`
	ImprovementAreas []string               `json:"improvement_areas"`
	Recommendations  []string               `json:"recommendations"`
	DetailedAnalysis map[string]interface{} `json:"detailed_analysis"`
}

// LoginResponse carries the bearer credential issued by the backend.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
