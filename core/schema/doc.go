/*
Package schema defines the data model for runtime declarations and the parser
for the declaration language.

A runtime declaration lists the modules a runtime is assembled from, in order,
together with the capabilities each module contributes:

	construct_runtime!(
	    pub enum Runtime where
	        Block = Block,
	        NodeBlock = opaque::Block,
	        UncheckedExtrinsic = UncheckedExtrinsic
	    {
	        System: system,
	        Balances: balances::{default, Event},
	        Aura: aura::{Module, Config<T>, Inherent(Timestamp)},
	        Test3_Instance1: test3::<Instance1>::{Module, Call, Event<T, I>},
	    }
	)

The construct_runtime!( ... ) wrapper is optional. Line and block comments are
ignored and trailing commas are allowed.

# Module Entries

An entry has one of three surface forms:

  - Bare:     Name: path
  - Default:  Name: path::{default, Extra, ...}
  - Explicit: Name: path::[<Instance>::]{Cap, Cap<T>, Inherent(Alt), ...}

The parser records which form was used and keeps the capability tokens as
written. Expanding the default set and validating capability names is the job
of package convention; the parser only enforces the shape of the grammar and the
placement rules for the default keyword.

# Capabilities

Recognized capability names:

  - Module:           the module's core binding
  - Call:             dispatchable calls
  - Storage:          persistent storage
  - Event:            emitted events, optionally generic (Event<T>, Event<T, I>)
  - Origin:           call origins, optionally generic
  - Config:           genesis configuration, optionally generic
  - Inherent:         inherent data provider, optionally Inherent(OtherModule)
  - ValidateUnsigned: unsigned transaction validation

# Errors

Every deviation from the grammar is reported as a *GrammarError carrying the
source position. Parsing stops at the first error.
*/
package schema
