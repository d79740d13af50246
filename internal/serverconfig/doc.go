// Package serverconfig loads the couchjwt-server configuration.
//
// Sources are applied in order, later ones winning: built-in defaults, a
// YAML file, .env files, COUCHJWT_* environment variables, then command-line
// flags that were explicitly set.
package serverconfig
