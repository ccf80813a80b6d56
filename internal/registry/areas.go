package registry

import "traffic-insight/internal/models"

// defaultAreas is the monitored Bangalore area table. Baselines are the
// historical average congestion for the area (2022-2024); hotspot areas
// carry structurally higher demand in synthetic fallback data.
func defaultAreas() []models.Area {
	return []models.Area{
		{
			Name:               "Koramangala",
			Aliases:            []string{"koramangala", "kormangala"},
			Latitude:           12.9352,
			Longitude:          77.6245,
			BaselineCongestion: 72,
			Hotspot:            true,
		},
		{
			Name:               "Indiranagar",
			Aliases:            []string{"indiranagar", "indira nagar"},
			Latitude:           12.9784,
			Longitude:          77.6408,
			BaselineCongestion: 58,
		},
		{
			Name:               "Whitefield",
			Aliases:            []string{"whitefield", "white field"},
			Latitude:           12.9698,
			Longitude:          77.7500,
			BaselineCongestion: 75,
		},
		{
			Name:               "Electronic City",
			Aliases:            []string{"electronic city", "e city", "ec"},
			Latitude:           12.8399,
			Longitude:          77.6770,
			BaselineCongestion: 65,
		},
		{
			Name:               "M.G. Road",
			Aliases:            []string{"mg road", "m g road"},
			Latitude:           12.9756,
			Longitude:          77.6063,
			BaselineCongestion: 60,
		},
		{
			Name:               "Jayanagar",
			Aliases:            []string{"jayanagar", "jaya nagar"},
			Latitude:           12.9308,
			Longitude:          77.5838,
			BaselineCongestion: 48,
		},
		{
			Name:               "Hebbal",
			Aliases:            []string{"hebbal"},
			Latitude:           13.0358,
			Longitude:          77.5970,
			BaselineCongestion: 62,
		},
		{
			Name:               "Yeshwanthpur",
			Aliases:            []string{"yeshwanthpur", "yeshwantpur"},
			Latitude:           13.0280,
			Longitude:          77.5410,
			BaselineCongestion: 55,
		},
		{
			Name:               "Marathahalli",
			Aliases:            []string{"marathahalli", "marthahalli"},
			Latitude:           12.9591,
			Longitude:          77.7011,
			BaselineCongestion: 78,
			Hotspot:            true,
		},
		{
			Name:               "Silk Board",
			Aliases:            []string{"silk board", "silkboard", "silk board junction"},
			Latitude:           12.9172,
			Longitude:          77.6227,
			BaselineCongestion: 82,
			Hotspot:            true,
		},
		{
			Name:               "Outer Ring Road",
			Aliases:            []string{"outer ring road", "orr"},
			Latitude:           12.9300,
			Longitude:          77.6800,
			BaselineCongestion: 76,
			Hotspot:            true,
		},
		{
			Name:               "Sarjapur Road",
			Aliases:            []string{"sarjapur road", "sarjapur"},
			Latitude:           12.9100,
			Longitude:          77.6800,
			BaselineCongestion: 68,
		},
		{
			Name:               "Bannerghatta Road",
			Aliases:            []string{"bannerghatta road", "bannerghatta"},
			Latitude:           12.8900,
			Longitude:          77.5970,
			BaselineCongestion: 64,
		},
		{
			Name:      "Old Airport Road",
			Aliases:   []string{"old airport road"},
			Latitude:  12.9600,
			Longitude: 77.6500,
			// No stable historical baseline for this corridor yet; the
			// historical-deviation factor is omitted for it.
		},
	}
}
