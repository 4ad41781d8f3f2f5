package registry

import "shademap/internal/types"

// DefaultSources returns the statically configured data sources available at
// startup. Open-Meteo weather is the required backbone source and starts
// enabled; the others start disabled and can be toggled by the user.
func DefaultSources() []types.DataSource {
	return []types.DataSource{
		{
			ID:            "open-meteo",
			Name:          "Open-Meteo Weather",
			Enabled:       true,
			Required:      true,
			BaseColor:     "#3b82f6",
			SelectedField: "temperature_2m",
			Fields: []types.DataField{
				{ID: "temperature_2m", Name: "Temperature", Unit: "°C", Description: "2m above ground temperature"},
				{ID: "relative_humidity_2m", Name: "Humidity", Unit: "%", Description: "Relative humidity at 2m"},
				{ID: "precipitation", Name: "Precipitation", Unit: "mm", Description: "Total precipitation"},
				{ID: "wind_speed_10m", Name: "Wind Speed", Unit: "m/s", Description: "Wind speed at 10m height"},
				{ID: "surface_pressure", Name: "Pressure", Unit: "hPa", Description: "Surface air pressure"},
			},
			ThresholdRules: []types.ThresholdRule{
				{ID: "1", Color: "#3b82f6", Operator: types.OpLessThan, Value: 10, Label: "Cold"},
				{ID: "2", Color: "#f59e0b", Operator: types.OpLessThan, Value: 25, Label: "Mild"},
				{ID: "3", Color: "#ef4444", Operator: types.OpGreaterThanEq, Value: 25, Label: "Hot"},
			},
		},
		{
			ID:            "traffic",
			Name:          "Traffic Data",
			Enabled:       false,
			Required:      false,
			BaseColor:     "#ef4444",
			SelectedField: "congestion_level",
			Fields: []types.DataField{
				{ID: "congestion_level", Name: "Congestion Level", Unit: "%", Description: "Traffic congestion percentage"},
				{ID: "average_speed", Name: "Average Speed", Unit: "km/h", Description: "Average vehicle speed"},
				{ID: "vehicle_count", Name: "Vehicle Count", Unit: "vehicles/h", Description: "Vehicles per hour"},
			},
			ThresholdRules: []types.ThresholdRule{
				{ID: "1", Color: "#22c55e", Operator: types.OpLessThan, Value: 30, Label: "Light"},
				{ID: "2", Color: "#f59e0b", Operator: types.OpLessThan, Value: 70, Label: "Moderate"},
				{ID: "3", Color: "#ef4444", Operator: types.OpGreaterThanEq, Value: 70, Label: "Heavy"},
			},
		},
		{
			ID:            "environmental",
			Name:          "Environmental Sensors",
			Enabled:       false,
			Required:      false,
			BaseColor:     "#10b981",
			SelectedField: "air_quality_index",
			Fields: []types.DataField{
				{ID: "air_quality_index", Name: "Air Quality Index", Unit: "AQI", Description: "Air quality measurement"},
				{ID: "noise_level", Name: "Noise Level", Unit: "dB", Description: "Environmental noise level"},
				{ID: "pm25", Name: "PM2.5", Unit: "μg/m³", Description: "Fine particulate matter"},
			},
			ThresholdRules: []types.ThresholdRule{
				{ID: "1", Color: "#22c55e", Operator: types.OpLessThan, Value: 50, Label: "Good"},
				{ID: "2", Color: "#f59e0b", Operator: types.OpLessThan, Value: 100, Label: "Moderate"},
				{ID: "3", Color: "#ef4444", Operator: types.OpGreaterThanEq, Value: 100, Label: "Poor"},
			},
		},
	}
}
