// Package tools is the registry of assistant tools.
//
// The tool set is fixed at construction: two local tools (authenticate,
// check_auth) that operate on the session store, six remote data tools
// that proxy to the Fi MCP service, and one aggregator
// (get_financial_context) that collects every data payload into a
// single context block.
//
// The model elects tools by declaration only; execution always flows
// through Registry.Dispatch, which validates arguments against the
// declared schema before anything touches the network and advances the
// per-actor auth gate from live results.
package tools
