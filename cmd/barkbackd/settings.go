package main

import "barkback/pkg/models"

// defaultSettings seeds the settings service on startup. Idle/action period
// and decibel threshold bounds come from the reference firmware's own
// defaults; collar ranges, alert configuration and step sequences have no
// documented default and are chosen conservatively here (see DESIGN.md).
func defaultSettings() models.Settings {
	return models.Settings{
		IdlePeriodMinMS:   10000,
		IdlePeriodMaxMS:   10000,
		ActionPeriodMinMS: 1000,
		ActionPeriodMaxMS: 1000,

		DecibelThresholdMin: 80,
		DecibelThresholdMax: 80,

		CollarMinShock: 1,
		CollarMaxShock: 10,
		CollarMinVibe:  20,
		CollarMaxVibe:  60,

		AlertType:       models.AlertCollarVibration,
		AlertDurationMS: 500,
		AlertStrength:   30,

		PassType:      models.GradedPass,
		PassThreshold: 0.5,

		CorrectionSteps: []models.Step{
			{
				Kind:              models.Shock,
				StartDelayMS:      0,
				EndDelayMS:        0,
				TimeRangeType:     models.Fixed,
				TimeRange:         [2]float64{0.5, 0.5},
				StrengthRangeType: models.Fixed,
				StrengthRange:     [2]float64{0.3, 0.3},
			},
		},
		AffirmationSteps: []models.Step{
			{
				Kind:              models.Vibrate,
				StartDelayMS:      0,
				EndDelayMS:        0,
				TimeRangeType:     models.Fixed,
				TimeRange:         [2]float64{0.3, 0.3},
				StrengthRangeType: models.Fixed,
				StrengthRange:     [2]float64{0.2, 0.2},
			},
		},
	}
}
