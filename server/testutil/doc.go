// Package testutil provides an httptest-backed server component with the
// standard middleware stack applied.
//
//	srv := testutil.NewComponent()
//	srv.GinEngine().GET("/hello", func(c *gin.Context) { c.String(200, "world") })
//	tu.T(t).Setup(srv)
//
//	resp, _ := srv.Client().Get(srv.BaseURL() + "/hello")
package testutil
