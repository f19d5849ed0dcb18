package feed

// GasStationList is the response of the station price feed.
type GasStationList struct {
	Fecha             string       `json:"Fecha"`
	ListaEESSPrecio   []GasStation `json:"ListaEESSPrecio"`
	Nota              string       `json:"Nota"`
	ResultadoConsulta string       `json:"ResultadoConsulta"`
}

// GasStation is a single station of the feed. Prices and coordinates use a
// comma as the decimal separator and are empty when unknown.
type GasStation struct {
	IDEESS             string `json:"IDEESS"`
	Rotulo             string `json:"Rótulo"`
	Direccion          string `json:"Dirección"`
	Localidad          string `json:"Localidad"`
	Municipio          string `json:"Municipio"`
	Provincia          string `json:"Provincia"`
	Latitud            string `json:"Latitud"`
	Longitud           string `json:"Longitud (WGS84)"`
	PrecioBioetanol    string `json:"Precio Bioetanol"`
	PrecioGasoleoA     string `json:"Precio Gasoleo A"`
	PrecioGasolina95E5 string `json:"Precio Gasolina 95 E5"`
}

// Coordinates parses the station location.
func (g *GasStation) Coordinates() (lat, lng float64, err error) {
	lat, err = ParseLatLong(g.Latitud)
	if err != nil {
		return 0, 0, err
	}
	lng, err = ParseLatLong(g.Longitud)
	if err != nil {
		return 0, 0, err
	}
	return lat, lng, nil
}

// DisplayName combines the brand and address of the station.
func (g *GasStation) DisplayName() string {
	switch {
	case g.Rotulo == "":
		return g.Direccion
	case g.Direccion == "":
		return g.Rotulo
	}
	return g.Rotulo + " (" + g.Direccion + ")"
}
