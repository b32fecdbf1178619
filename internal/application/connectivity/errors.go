package connectivity

import "errors"

var errProbePanic = errors.New("connectivity: panic en el sondeo")
