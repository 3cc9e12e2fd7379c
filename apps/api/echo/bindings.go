package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/admissions/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads the "ordering" query param, eg. `?ordering=last_name,-application_date`.
// Fields outside allowed are ignored.
func (ord *Ordering) Bind(ctx echo.Context, allowed ...string) {
	ord.Orderings = core.ParseOrdering(ctx.QueryParam(orderingParam), allowed...)
}
