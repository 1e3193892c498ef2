/*
Package manifest reads anonymization job manifests.

A manifest is a single JSON or YAML document:

	{
	  "input":  {"path": "data/people.csv", "separator": ";"},
	  "output": {"path": "out/people.anon.csv", "overwrite": false},
	  "attributes": [
	    {"name": "dni", "role": "identifying"},
	    {"name": "age", "role": "qi", "data_type": "integer", "hierarchy": "h/age.csv"},
	    {"name": "diagnosis", "role": "sensitive"}
	  ],
	  "privacy": {
	    "k": 5,
	    "suppression_limit": 0.02,
	    "l_diversity": [{"column": "diagnosis", "l": 2}],
	    "t_closeness": [{"column": "diagnosis", "t": 1, "distance": "equal"}]
	  }
	}

Required keys must be present and non-null; there is no silent default for
them. Optional keys receive the defaults listed in the package constants.

# Validation

Parse walks the whole document and returns a ValidationError listing every
problem with its dotted field path and line, rather than stopping at the
first one. The report is a configuration failure (see package failure).

Parse never touches the input, hierarchy or output files; existence checks
happen when the job is prepared.

# Numeric fields

k and l must be integral. t-closeness thresholds go through ReadRoundedInt,
which rounds fractional values half away from zero so a threshold is never
weakened by truncation.
*/
package manifest
