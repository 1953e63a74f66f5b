/*
Package example contains some example of the various use of this library:

/app        web app / RP demonstrating authorization code flow using various authentication methods (code, PKCE, JWT profile)
*/
package example
