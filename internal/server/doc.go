// package server implements the loopback HTTP server that receives the
// OAuth2 authorization callback during `spotsnap login`. It exists for a
// single request and is shut down as soon as a result arrives.
package server
