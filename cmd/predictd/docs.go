package main

// General API documentation for swaggo. Build with -tags=swagger to serve it.
//
// @title           predictd API
// @version         1.0
// @description     HTTP API for single-model regression inference.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
