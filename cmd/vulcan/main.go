// Vulcan is a design-for-manufacturability review engine.
//
// It loads a versioned rule bundle, recommends a manufacturing process
// from part facts, plans one or two evaluation routes, runs deterministic
// DFM rule checks and produces a rough-order-of-magnitude cost estimate.
//
// Usage:
//
//	# Validate a rule bundle
//	vulcan validate --bundle ./bundle
//
//	# Recommend a manufacturing process for a part
//	vulcan recommend --bundle ./bundle --facts part.json
//
//	# Run a full review
//	vulcan review --bundle ./bundle --facts part.json \
//	    --role design_engineer --template standard_report
//
//	# Browse archived reviews
//	vulcan archive list
package main

func main() {
	Execute()
}
