package weather

import "github.com/couchcryptid/ssebop-etl/internal/refet"

// GLDAS-2.1 NOAH band names, 3-hourly instantaneous/averaged.
const (
	nasaTemp  = "Tair_f_inst"  // [K]
	nasaQ     = "Qair_f_inst"  // specific humidity [kg/kg]
	nasaSolar = "Swnet_tavg"   // [W m-2]
	nasaWind  = "Wind_f_inst"  // scalar [m s-1]
	nasaRain  = "Rainf_f_tavg" // [kg m-2 s-1]
)

const nasaStepSeconds = 3 * 60 * 60

func normalizeNASA(day RawDay, anc Ancillary, method refet.Method) (*Stack, error) {
	tmax, err := reduceBand(day.Steps, nasaTemp, reduceMax)
	if err != nil {
		return nil, err
	}
	tmin, err := reduceBand(day.Steps, nasaTemp, reduceMin)
	if err != nil {
		return nil, err
	}
	q, err := reduceBand(day.Steps, nasaQ, reduceMean)
	if err != nil {
		return nil, err
	}
	rs, err := reduceBand(day.Steps, nasaSolar, reduceMean)
	if err != nil {
		return nil, err
	}
	wind, err := reduceBand(day.Steps, nasaWind, reduceMean)
	if err != nil {
		return nil, err
	}
	rainRate, err := reduceBand(day.Steps, nasaRain, reduceSum)
	if err != nil {
		return nil, err
	}

	pair := refet.AirPressure(anc.Elev, method)
	return &Stack{
		Tmax: tmax.AddScalar(-273.15),
		Tmin: tmin.AddScalar(-273.15),
		Ea:   refet.ActualVaporPressure(q, pair),
		Rs:   rs.MulScalar(0.0864), // W m-2 -> MJ m-2 day-1
		Wind: wind,
		// kg m-2 s-1 summed over 3-hourly steps -> mm day-1.
		Rain: rainRate.MulScalar(nasaStepSeconds),
		Zw:   2,
	}, nil
}

// NOAA GFS band names, 6-hourly forecast steps.
const (
	gfsTemp  = "temperature_2m_above_ground"       // [K]
	gfsQ     = "specific_humidity_2m_above_ground" // [kg/kg]
	gfsWindU = "u_component_of_wind_10m_above_ground"
	gfsWindV = "v_component_of_wind_10m_above_ground"
	gfsSolar = "downward_shortwave_radiation_flux" // [W m-2]
	gfsRain  = "total_precipitation_surface"       // [kg m-2]
)

func normalizeGFS(day RawDay, anc Ancillary, method refet.Method) (*Stack, error) {
	tmax, err := reduceBand(day.Steps, gfsTemp, reduceMax)
	if err != nil {
		return nil, err
	}
	tmin, err := reduceBand(day.Steps, gfsTemp, reduceMin)
	if err != nil {
		return nil, err
	}
	q, err := reduceBand(day.Steps, gfsQ, reduceMean)
	if err != nil {
		return nil, err
	}
	u, err := reduceBand(day.Steps, gfsWindU, reduceMean)
	if err != nil {
		return nil, err
	}
	v, err := reduceBand(day.Steps, gfsWindV, reduceMean)
	if err != nil {
		return nil, err
	}
	rs, err := reduceBand(day.Steps, gfsSolar, reduceMean)
	if err != nil {
		return nil, err
	}
	rain, err := reduceBand(day.Steps, gfsRain, reduceSum)
	if err != nil {
		return nil, err
	}

	pair := refet.AirPressure(anc.Elev, method)
	return &Stack{
		Tmax: tmax.AddScalar(-273.15),
		Tmin: tmin.AddScalar(-273.15),
		Ea:   refet.ActualVaporPressure(q, pair),
		Rs:   rs.MulScalar(0.0864),
		Wind: refet.WindMagnitude(u, v),
		Rain: rain, // already a per-interval accumulation in mm
		Zw:   2,
	}, nil
}

// ERA5-Land band names, hourly.
const (
	ecmwfTemp  = "temperature_2m"          // [K]
	ecmwfDew   = "dewpoint_temperature_2m" // [K]
	ecmwfSolar = "surface_solar_radiation_downwards" // accumulated [J m-2]
	ecmwfWindU = "u_component_of_wind_10m"
	ecmwfWindV = "v_component_of_wind_10m"
	ecmwfRain  = "total_precipitation_hourly" // [m]
)

func normalizeECMWF(day RawDay, anc Ancillary) (*Stack, error) {
	tmax, err := reduceBand(day.Steps, ecmwfTemp, reduceMax)
	if err != nil {
		return nil, err
	}
	tmin, err := reduceBand(day.Steps, ecmwfTemp, reduceMin)
	if err != nil {
		return nil, err
	}
	dew, err := reduceBand(day.Steps, ecmwfDew, reduceMean)
	if err != nil {
		return nil, err
	}
	u, err := reduceBand(day.Steps, ecmwfWindU, reduceMean)
	if err != nil {
		return nil, err
	}
	v, err := reduceBand(day.Steps, ecmwfWindV, reduceMean)
	if err != nil {
		return nil, err
	}
	rs, err := reduceBand(day.Steps, ecmwfSolar, reduceSum)
	if err != nil {
		return nil, err
	}
	rain, err := reduceBand(day.Steps, ecmwfRain, reduceSum)
	if err != nil {
		return nil, err
	}

	return &Stack{
		Tmax: tmax.AddScalar(-273.15),
		Tmin: tmin.AddScalar(-273.15),
		// Dewpoint saturation vapor pressure is the actual vapor pressure.
		Ea:   refet.SatVaporPressure(dew.AddScalar(-273.15)),
		Rs:   rs.DivScalar(1e6), // J m-2 -> MJ m-2 day-1
		Wind: refet.WindMagnitude(u, v),
		Rain: rain.MulScalar(1000), // m -> mm
		Zw:   10,
	}, nil
}
