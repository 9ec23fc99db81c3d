package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/softex1/tably-paket1/utils"
)

func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, utils.InvalidArgument("Invalid %s", name)
	}
	return uint(id), nil
}
